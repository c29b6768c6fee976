package rudp

import "testing"

func TestChecksumRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"one byte", []byte{0x42}},
		{"even length", []byte("hello!!!")},
		{"odd length", []byte("hello")},
		{"all zero", make([]byte, 64)},
		{"all ff", bytesOf(0xFF, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := make([]byte, HeaderSize+len(tt.payload))
			Header{Len: uint16(len(tt.payload)), SegmentNum: 3}.Encode(msg)
			copy(msg[HeaderSize:], tt.payload)

			setChecksum(msg, len(tt.payload))

			if !validChecksum(msg, len(tt.payload)) {
				t.Fatalf("validChecksum false after setChecksum for %q", tt.name)
			}

			msg[HeaderSize-1] ^= 0xFF // corrupt the last header byte
			if validChecksum(msg, len(tt.payload)) {
				t.Errorf("validChecksum true after corrupting header for %q", tt.name)
			}
		})
	}
}

func TestValidChecksumShortBuffer(t *testing.T) {
	if validChecksum(make([]byte, 3), 10) {
		t.Error("validChecksum true for a buffer shorter than HeaderSize+payloadLen")
	}
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
