package rudp

import (
	"time"

	"github.com/therealutkarshpriyadarshi/rudp/rudplog"
	"github.com/therealutkarshpriyadarshi/rudp/rudpmetrics"
)

const (
	// ipv4HeaderSize and udpHeaderSize account for the overhead a RUDP
	// segment carries underneath it on the wire, used to derive MSS.
	ipv4HeaderSize = 20
	udpHeaderSize  = 8

	// MSS is the largest payload that fits into one UDP datagram once
	// IPv4, UDP and RUDP header overhead are subtracted from the
	// largest possible IPv4 datagram (65535 bytes).
	MSS = (1<<16 - 1) - ipv4HeaderSize - udpHeaderSize - HeaderSize

	// MaxRetries is the default number of attempts a bounded retry
	// loop makes before giving up.
	MaxRetries = 15

	// AckTimeout is the default per-ACK wait on the sender side.
	AckTimeout = 100 * time.Millisecond

	// RecvTimeout is the default wait for the second and later
	// segments of one Recv call. The first segment of a Recv call
	// always blocks without a timeout.
	RecvTimeout = 2 * time.Second

	// MaxMessageSize is the largest application message Send can
	// transmit without the 16-bit segment number wrapping.
	MaxMessageSize = MSS * 65536
)

// Config holds the tunable parameters of a Sender or Receiver.
// OpenSender and OpenReceiver replace every zero-valued field with the
// protocol's standard default, so the zero value behaves like
// DefaultConfig.
type Config struct {
	// MaxRetries bounds every retry loop in the protocol: SYN, FIN and
	// per-segment ACK waits.
	MaxRetries int

	// AckTimeout is how long a sender waits for a segment's ACK
	// before retrying.
	AckTimeout time.Duration

	// RecvTimeout is how long a receiver waits for the second and
	// later segments of one Recv call before giving up.
	RecvTimeout time.Duration

	// Logger receives diagnostic messages about retries, timeouts and
	// protocol errors. A nil Logger is treated as rudplog.Nop().
	Logger rudplog.Logger

	// Metrics, if non-nil, is updated with retry/timeout/duplicate
	// counts and bytes transferred as the endpoint operates.
	Metrics *rudpmetrics.Endpoint
}

// DefaultConfig returns a Config populated with the protocol's
// standard timing constants and a no-op logger.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  MaxRetries,
		AckTimeout:  AckTimeout,
		RecvTimeout: RecvTimeout,
		Logger:      rudplog.Nop(),
	}
}

// withDefaults fills any zero-valued field of cfg with the protocol's
// standard default so callers may supply a partially populated Config.
func (cfg Config) withDefaults() Config {
	out := cfg
	if out.MaxRetries == 0 {
		out.MaxRetries = MaxRetries
	}
	if out.AckTimeout == 0 {
		out.AckTimeout = AckTimeout
	}
	if out.RecvTimeout == 0 {
		out.RecvTimeout = RecvTimeout
	}
	if out.Logger == nil {
		out.Logger = rudplog.Nop()
	}
	return out
}
