package rudp

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of a RUDP header on the wire, in bytes.
const HeaderSize = 7

// Flag is a bit in the header's flags field.
type Flag uint8

// Header flag bits.
const (
	FlagSYN Flag = 1 << 0
	FlagACK Flag = 1 << 1
	FlagFIN Flag = 1 << 2
	FlagMOR Flag = 1 << 3 // more segments follow
)

// String returns a human-readable combination of the set flags.
func (f Flag) String() string {
	if f == 0 {
		return "-"
	}
	s := ""
	for _, pair := range []struct {
		bit  Flag
		name string
	}{
		{FlagSYN, "SYN"},
		{FlagACK, "ACK"},
		{FlagFIN, "FIN"},
		{FlagMOR, "MOR"},
	} {
		if f&pair.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += pair.name
		}
	}
	return s
}

// Header is the fixed 7-byte RUDP header carried by every datagram.
//
// Multi-byte fields are encoded in network byte order (big-endian) on
// the wire. The original C implementation this protocol was ported
// from transmitted the header in host byte order and relied on both
// peers sharing endianness; this implementation picks network byte
// order explicitly so two machines of different endianness interoperate.
type Header struct {
	Len        uint16 // payload size in bytes, not including the header
	Flags      Flag
	Checksum   uint16
	SegmentNum uint16
}

// Encode writes the header into the first HeaderSize bytes of buf.
// buf must have length at least HeaderSize.
func (h Header) Encode(buf []byte) {
	_ = buf[HeaderSize-1] // bounds check hint
	binary.BigEndian.PutUint16(buf[0:2], h.Len)
	buf[2] = byte(h.Flags)
	binary.BigEndian.PutUint16(buf[3:5], h.Checksum)
	binary.BigEndian.PutUint16(buf[5:7], h.SegmentNum)
}

// DecodeHeader reads a header from the first HeaderSize bytes of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("rudp: short header: %d bytes (want %d): %w", len(buf), HeaderSize, ErrShortRead)
	}
	return Header{
		Len:        binary.BigEndian.Uint16(buf[0:2]),
		Flags:      Flag(buf[2]),
		Checksum:   binary.BigEndian.Uint16(buf[3:5]),
		SegmentNum: binary.BigEndian.Uint16(buf[5:7]),
	}, nil
}

// Has reports whether all bits in want are set in the header's flags.
func (h Header) Has(want Flag) bool {
	return h.Flags&want == want
}

// String returns a short debug representation of the header.
func (h Header) String() string {
	return fmt.Sprintf("Header{len=%d flags=%s checksum=0x%04x seg=%d}", h.Len, h.Flags, h.Checksum, h.SegmentNum)
}
