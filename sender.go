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

// Sender is the sending half of a RUDP connection. It owns one UDP
// socket connected to a single peer, and is safe to use from exactly
// one goroutine at a time — the protocol has no internal concurrency.
type Sender struct {
	mu sync.Mutex

	conn   *net.UDPConn
	cfg    Config
	state  SenderState
	closed bool

	// scratch is a preallocated send buffer sized for one segment
	// (header + MSS), reused across calls so segmentation never
	// allocates per segment.
	scratch []byte
	// ackBuf is a preallocated receive buffer for header-sized ACKs.
	ackBuf []byte
}

// OpenSender creates a UDP socket, connects it to address:port, and
// performs the SYN/SYN-ACK open handshake. ctx bounds only the initial
// socket creation and DNS/address resolution; the handshake's own
// retry/timeout policy is governed by cfg.
func OpenSender(ctx context.Context, address string, port uint16, cfg Config) (*Sender, error) {
	cfg = cfg.withDefaults()

	conn, err := dialUDP(ctx, address, port)
	if err != nil {
		return nil, err
	}

	s := &Sender{
		conn:    conn,
		cfg:     cfg,
		state:   SenderUninit,
		scratch: make([]byte, HeaderSize+MSS),
		ackBuf:  make([]byte, HeaderSize),
	}

	if err := s.openHandshake(); err != nil {
		conn.Close()
		return nil, err
	}

	s.state = SenderEstablished
	return s, nil
}

func (s *Sender) openHandshake() error {
	s.state = SenderSynSent

	syn := s.scratch[:HeaderSize]
	Header{Flags: FlagSYN}.Encode(syn)
	setChecksum(syn, 0)

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.AckTimeout)); err != nil {
			return fmt.Errorf("rudp: set write deadline: %w", err)
		}
		if _, err := s.conn.Write(syn); err != nil {
			s.cfg.Logger.Warnf("open: send SYN attempt %d failed: %v", attempt, err)
			s.cfg.Metrics.RecordRetry()
			continue
		}

		reply, err := s.readReply()
		if err != nil {
			s.cfg.Logger.Debugf("open: attempt %d: %v", attempt, err)
			s.cfg.Metrics.RecordRetry()
			continue
		}
		if !reply.Has(FlagACK) {
			s.cfg.Logger.Debugf("open: attempt %d: reply missing ACK: %s", attempt, reply)
			s.cfg.Metrics.RecordRetry()
			continue
		}
		return nil
	}

	return fmt.Errorf("rudp: open handshake: %w", ErrRetriesExhausted)
}

// readReply reads one header-sized reply with the sender's configured
// ACK timeout and validates its checksum.
func (s *Sender) readReply() (Header, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.AckTimeout)); err != nil {
		return Header{}, fmt.Errorf("set read deadline: %w", err)
	}

	n, err := s.conn.Read(s.ackBuf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			s.cfg.Metrics.RecordTimeout()
			return Header{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Header{}, err
	}
	if n < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortRead, n)
	}
	if !validChecksum(s.ackBuf, 0) {
		s.cfg.Metrics.RecordChecksumError()
		return Header{}, ErrChecksum
	}
	return DecodeHeader(s.ackBuf)
}

// Send segments data into MSS-sized datagrams and transmits each with
// stop-and-wait reliability, per sendSegment. It returns the number of
// bytes sent, which equals len(data) on success.
func (s *Sender) Send(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if s.state != SenderEstablished {
		return 0, fmt.Errorf("rudp: send called in state %s", s.state)
	}
	if len(data) > MaxMessageSize {
		return 0, ErrMessageTooLarge
	}
	if len(data) == 0 {
		return 0, nil
	}

	totalSent := 0
	segmentNum := uint16(0)

	for totalSent < len(data) {
		remaining := len(data) - totalSent
		segLen := remaining
		if segLen > MSS {
			segLen = MSS
		}
		more := segLen < remaining

		n, err := s.sendSegment(data[totalSent:totalSent+segLen], segmentNum, more)
		if err != nil {
			return totalSent, err
		}

		totalSent += n
		segmentNum++
	}

	return totalSent, nil
}

// sendSegment transmits one datagram carrying segmentNum/more/payload
// and retries up to MaxRetries times until a matching ACK arrives.
func (s *Sender) sendSegment(payload []byte, segmentNum uint16, more bool) (int, error) {
	msg := s.scratch[:HeaderSize+len(payload)]

	var flags Flag
	if more {
		flags = FlagMOR
	}
	Header{Len: uint16(len(payload)), Flags: flags, SegmentNum: segmentNum}.Encode(msg)
	copy(msg[HeaderSize:], payload)
	setChecksum(msg, len(payload))

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.AckTimeout)); err != nil {
			return 0, fmt.Errorf("rudp: set write deadline: %w", err)
		}

		n, err := s.conn.Write(msg)
		if err != nil || n != len(msg) {
			s.cfg.Logger.Warnf("send_segment %d: short or failed write (%d/%d): %v", segmentNum, n, len(msg), err)
			s.cfg.Metrics.RecordRetry()
			continue
		}

		reply, err := s.readReply()
		if err != nil {
			s.cfg.Logger.Debugf("send_segment %d: attempt %d: %v", segmentNum, attempt, err)
			s.cfg.Metrics.RecordRetry()
			continue
		}
		if !reply.Has(FlagACK) || reply.SegmentNum != segmentNum {
			s.cfg.Logger.Debugf("send_segment %d: attempt %d: mismatched reply %s", segmentNum, attempt, reply)
			s.cfg.Metrics.RecordRetry()
			continue
		}

		s.cfg.Metrics.RecordSegmentSent(len(payload))
		return len(payload), nil
	}

	return 0, fmt.Errorf("rudp: send_segment %d: %w", segmentNum, ErrRetriesExhausted)
}

// State returns the sender's current connection state.
func (s *Sender) State() SenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close performs the FIN/FIN-ACK close handshake and releases the
// socket. It is idempotent; retry exhaustion during the handshake is
// logged but does not prevent the local close from completing.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	defer s.conn.Close()

	if s.state != SenderEstablished {
		return nil
	}
	s.state = SenderFinSent

	fin := s.scratch[:HeaderSize]
	Header{Flags: FlagFIN}.Encode(fin)
	setChecksum(fin, 0)

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.AckTimeout)); err != nil {
			break
		}
		if _, err := s.conn.Write(fin); err != nil {
			s.cfg.Metrics.RecordRetry()
			continue
		}

		reply, err := s.readReply()
		if err != nil {
			s.cfg.Metrics.RecordRetry()
			continue
		}
		if reply.Has(FlagFIN) && reply.Has(FlagACK) {
			s.state = SenderClosed
			return nil
		}
		s.cfg.Metrics.RecordRetry()
	}

	s.cfg.Logger.Warnf("close: FIN handshake exhausted retries, closing locally")
	s.state = SenderClosed
	return nil
}
