package rudp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// Receiver is the receiving half of a RUDP connection. It owns one
// bound UDP socket and, after the open handshake, the address of the
// single peer it will exchange segments with. Datagrams from any
// other address are ignored.
type Receiver struct {
	mu sync.Mutex

	conn   *net.UDPConn
	peer   *net.UDPAddr
	cfg    Config
	state  ReceiverState
	closed bool

	expectSegment uint16

	// pendingLen, when non-zero, is the length of a datagram already
	// sitting in segBuf from the open handshake's trailing read, to be
	// consumed by the first Recv call instead of re-reading the socket.
	pendingLen int

	// segBuf is a preallocated receive buffer sized for one segment
	// (header + MSS).
	segBuf []byte
	// replyBuf is a preallocated buffer for header-only replies (ACKs,
	// SYN-ACK, FIN-ACK).
	replyBuf []byte
}

// OpenReceiver binds a UDP socket on port and blocks until a peer's
// SYN arrives, replying with a SYN-ACK to complete the open handshake.
// ctx bounds only socket creation, not the wait for the peer's SYN,
// which per the protocol's receive semantics blocks indefinitely.
func OpenReceiver(ctx context.Context, port uint16, cfg Config) (*Receiver, error) {
	cfg = cfg.withDefaults()

	conn, err := listenUDP(ctx, port)
	if err != nil {
		return nil, err
	}

	r := &Receiver{
		conn:     conn,
		cfg:      cfg,
		state:    ReceiverBound,
		segBuf:   make([]byte, HeaderSize+MSS),
		replyBuf: make([]byte, HeaderSize),
	}

	if err := r.openHandshake(); err != nil {
		conn.Close()
		return nil, err
	}

	r.state = ReceiverEstablished
	return r, nil
}

// openHandshake blocks for the peer's SYN (no deadline: the first
// datagram of a connection may arrive arbitrarily late), fixes that
// sender as the receiver's one peer, and retries the SYN-ACK reply up
// to MaxRetries times, re-reading further SYN retransmits from the
// peer as acknowledgement that an earlier SYN-ACK was lost.
func (r *Receiver) openHandshake() error {
	r.state = ReceiverAwaitingSyn

	if err := r.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("rudp: clear read deadline: %w", err)
	}

	n, peer, err := r.conn.ReadFromUDP(r.segBuf)
	if err != nil {
		return fmt.Errorf("rudp: await SYN: %w", err)
	}
	if err := r.validateHeaderOnly(n, FlagSYN); err != nil {
		return fmt.Errorf("rudp: await SYN: %w", err)
	}
	r.peer = peer

	synAck := r.replyBuf
	Header{Flags: FlagSYN | FlagACK}.Encode(synAck)
	setChecksum(synAck, 0)

	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		if _, err := r.conn.WriteToUDP(synAck, r.peer); err != nil {
			r.cfg.Logger.Warnf("open: send SYN-ACK attempt %d failed: %v", attempt, err)
			r.cfg.Metrics.RecordRetry()
			continue
		}

		n, err := r.readFromPeer(r.cfg.AckTimeout)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				// No further traffic: the peer accepted our SYN-ACK and
				// moved on to data, which is the success case here.
				return nil
			}
			return fmt.Errorf("rudp: open handshake: %w", err)
		}

		hdr, err := r.decodeValid(n)
		if err != nil {
			r.cfg.Metrics.RecordChecksumError()
			continue
		}
		if hdr.Has(FlagSYN) {
			// Peer retransmitted its SYN: our SYN-ACK was lost, retry.
			r.cfg.Metrics.RecordRetry()
			continue
		}

		// Any other well-formed datagram (the first data segment) means
		// the handshake is done; hand it back to Recv via the buffer.
		r.pendingLen = n
		return nil
	}

	return fmt.Errorf("rudp: open handshake: %w", ErrRetriesExhausted)
}

// readFromPeer reads the next datagram from the socket, discarding any
// that do not come from r.peer, and applies timeout as its read
// deadline (the zero Time clears the deadline and blocks indefinitely).
func (r *Receiver) readFromPeer(timeout time.Duration) (int, error) {
	for {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := r.conn.SetReadDeadline(deadline); err != nil {
			return 0, fmt.Errorf("set read deadline: %w", err)
		}

		n, from, err := r.conn.ReadFromUDP(r.segBuf)
		if err != nil {
			return 0, err
		}
		if r.peer != nil && !addrEqual(from, r.peer) {
			continue
		}
		return n, nil
	}
}

func addrEqual(a, b *net.UDPAddr) bool {
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

// validateHeaderOnly checks that n bytes were read, the checksum is
// valid, and the decoded header carries exactly the given flags.
func (r *Receiver) validateHeaderOnly(n int, want Flag) error {
	if n < HeaderSize {
		return fmt.Errorf("%w: got %d bytes", ErrShortRead, n)
	}
	if !validChecksum(r.segBuf, n-HeaderSize) {
		return ErrChecksum
	}
	hdr, err := DecodeHeader(r.segBuf)
	if err != nil {
		return err
	}
	if hdr.Flags != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedFlags, hdr.Flags, want)
	}
	return nil
}

// decodeValid validates the checksum of an n-byte datagram already
// sitting in segBuf and decodes its header.
func (r *Receiver) decodeValid(n int) (Header, error) {
	if n < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortRead, n)
	}
	if !validChecksum(r.segBuf, n-HeaderSize) {
		return Header{}, ErrChecksum
	}
	return DecodeHeader(r.segBuf)
}

// Recv reassembles one application message into out, blocking
// indefinitely for the message's first segment and applying
// cfg.RecvTimeout to every subsequent segment. It returns the number
// of bytes written to out.
func (r *Receiver) Recv(out []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	if r.state != ReceiverEstablished {
		return 0, fmt.Errorf("rudp: recv called in state %s", r.state)
	}

	total := 0
	first := true
	// Segment numbers restart at 0 for every message the sender sends.
	r.expectSegment = 0

	for {
		n, err := r.readSegment(first)
		if err != nil {
			return total, err
		}
		first = false

		hdr, payload, err := r.handleSegment(n)
		if err != nil {
			return total, err
		}
		if hdr == nil {
			// Duplicate, already re-ACKed; wait for the next datagram.
			continue
		}

		if total+len(payload) > len(out) {
			return total, ErrSegmentOverflow
		}
		total += copy(out[total:], payload)

		if !hdr.Has(FlagMOR) {
			return total, nil
		}
	}
}

// readSegment reads one datagram into segBuf, reusing pendingLen from
// the open handshake on the very first call of a connection's first
// Recv. first controls whether a timeout applies: the first segment
// of each Recv call blocks indefinitely, every later one uses
// RecvTimeout.
func (r *Receiver) readSegment(first bool) (int, error) {
	if r.pendingLen > 0 {
		n := r.pendingLen
		r.pendingLen = 0
		return n, nil
	}

	var timeout time.Duration
	if !first {
		timeout = r.cfg.RecvTimeout
	}

	n, err := r.readFromPeer(timeout)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			r.cfg.Metrics.RecordTimeout()
			return 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return 0, err
	}
	return n, nil
}

// handleSegment decodes and ACKs one datagram already read into
// segBuf. It returns a nil header (and no error) for a duplicate,
// already-ACKed segment that the caller should simply wait past. A
// checksum failure or short read is returned as an error rather than
// swallowed: an unreadable datagram fails the receive immediately, it
// does not get silently waited past.
func (r *Receiver) handleSegment(n int) (*Header, []byte, error) {
	hdr, err := r.decodeValid(n)
	if err != nil {
		r.cfg.Metrics.RecordChecksumError()
		return nil, nil, err
	}

	if hdr.Has(FlagFIN) {
		r.state = ReceiverDraining
		r.ack(hdr)
		return nil, nil, ErrPeerClosed
	}

	if hdr.SegmentNum != r.expectSegment {
		// Either a stale retransmit (behind) or out of order (ahead);
		// either way this isn't the segment we're waiting for. Re-ACK
		// stale retransmits so the sender can advance; silently drop
		// anything ahead of expectation since the protocol is strictly
		// in-order.
		if hdr.SegmentNum < r.expectSegment {
			r.cfg.Metrics.RecordDuplicate()
			r.ack(hdr)
		}
		return nil, nil, nil
	}

	payload := append([]byte(nil), r.segBuf[HeaderSize:n]...)
	r.ack(hdr)
	r.expectSegment++
	r.cfg.Metrics.RecordSegmentReceived(len(payload))

	h := hdr
	return &h, payload, nil
}

// ack replies to an incoming segment, copying its segment_num and
// echoing any SYN/FIN bits it carried so a reordered SYN or FIN
// retransmit arriving mid-stream still gets acknowledged the way the
// sender's handshake expects.
func (r *Receiver) ack(hdr Header) {
	flags := FlagACK | (hdr.Flags & (FlagSYN | FlagFIN))
	Header{Flags: flags, SegmentNum: hdr.SegmentNum}.Encode(r.replyBuf)
	setChecksum(r.replyBuf, 0)
	if _, err := r.conn.WriteToUDP(r.replyBuf, r.peer); err != nil {
		r.cfg.Logger.Warnf("ack segment %d (flags=%s): %v", hdr.SegmentNum, flags, err)
	}
}

// State returns the receiver's current connection state.
func (r *Receiver) State() ReceiverState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close releases the receiver's socket. Unlike Sender.Close, there is
// no outbound handshake: the receiver's FIN-ACK, if any, was already
// sent in response to the peer's FIN during Recv.
func (r *Receiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.state = ReceiverClosed
	return r.conn.Close()
}
