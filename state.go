package rudp

import "fmt"

// SenderState represents the lifecycle of a Sender endpoint.
type SenderState int

const (
	// SenderUninit is a Sender before its handshake has started.
	SenderUninit SenderState = iota

	// SenderSynSent represents having sent a SYN and waiting for a
	// SYN-ACK, retrying on timeout.
	SenderSynSent

	// SenderEstablished represents a Sender whose handshake completed
	// and that may send data.
	SenderEstablished

	// SenderFinSent represents having sent a FIN and waiting for
	// (or having given up on) a FIN-ACK.
	SenderFinSent

	// SenderClosed represents a Sender whose socket has been released.
	SenderClosed
)

// String returns the state's name.
func (s SenderState) String() string {
	switch s {
	case SenderUninit:
		return "UNINIT"
	case SenderSynSent:
		return "SYN_SENT"
	case SenderEstablished:
		return "ESTABLISHED"
	case SenderFinSent:
		return "FIN_SENT"
	case SenderClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ReceiverState represents the lifecycle of a Receiver endpoint.
type ReceiverState int

const (
	// ReceiverBound is a Receiver whose socket is bound but has not
	// yet seen the peer's SYN.
	ReceiverBound ReceiverState = iota

	// ReceiverAwaitingSyn represents blocking on the first inbound
	// datagram of the connection.
	ReceiverAwaitingSyn

	// ReceiverEstablished represents a Receiver that has sent its
	// SYN-ACK and may accept Recv calls.
	ReceiverEstablished

	// ReceiverDraining represents a Receiver that has observed a FIN
	// and is waiting to be closed locally.
	ReceiverDraining

	// ReceiverClosed represents a Receiver whose socket has been
	// released.
	ReceiverClosed
)

// String returns the state's name.
func (s ReceiverState) String() string {
	switch s {
	case ReceiverBound:
		return "BOUND"
	case ReceiverAwaitingSyn:
		return "AWAITING_SYN"
	case ReceiverEstablished:
		return "ESTABLISHED"
	case ReceiverDraining:
		return "DRAINING"
	case ReceiverClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}
