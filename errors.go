package rudp

import "errors"

// Sentinel errors returned by Sender and Receiver operations.
var (
	// ErrClosed is returned by operations on an endpoint that has
	// already been closed.
	ErrClosed = errors.New("rudp: endpoint closed")

	// ErrTimeout is returned when a blocking receive exceeds its
	// configured deadline.
	ErrTimeout = errors.New("rudp: receive timed out")

	// ErrChecksum is returned when a received datagram fails checksum
	// validation.
	ErrChecksum = errors.New("rudp: checksum mismatch")

	// ErrShortRead is returned when a received datagram is smaller
	// than a header.
	ErrShortRead = errors.New("rudp: short datagram")

	// ErrUnexpectedFlags is returned when a reply carries flags that
	// do not match what the protocol step requires.
	ErrUnexpectedFlags = errors.New("rudp: unexpected flags")

	// ErrUnexpectedSegment describes an ACK that echoes a segment
	// number other than the one just sent. Send treats such a reply as
	// a failed attempt and retries; it does not return this error.
	ErrUnexpectedSegment = errors.New("rudp: unexpected segment number")

	// ErrRetriesExhausted is returned when a bounded retry loop
	// exhausts MaxRetries without success.
	ErrRetriesExhausted = errors.New("rudp: retries exhausted")

	// ErrPeerClosed is returned by Recv when the sender's FIN arrives.
	ErrPeerClosed = errors.New("rudp: peer closed the connection")

	// ErrSegmentOverflow is returned by Recv when the sender's message
	// does not fit in the caller-supplied buffer. This signals a
	// programming error (an undersized buffer for the stream the
	// caller chose to receive), not a network anomaly.
	ErrSegmentOverflow = errors.New("rudp: reassembly buffer overflow")

	// ErrMessageTooLarge is returned by Send when a message would
	// require more segments than a 16-bit segment number can address.
	ErrMessageTooLarge = errors.New("rudp: message exceeds MSS * 65536 bytes")
)
