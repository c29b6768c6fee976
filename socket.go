package rudp

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenUDP binds a UDP socket to (0.0.0.0, port) with SO_REUSEADDR set,
// mirroring the receiver-side open step of the protocol: "create
// datagram socket, set SO_REUSEADDR, bind to (ANY, port)".
func listenUDP(ctx context.Context, port uint16) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var setErr error
			if err := c.Control(func(fd uintptr) {
				setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return setErr
		},
	}

	addr := fmt.Sprintf(":%d", port)
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("rudp: bind receiver socket on port %d: %w", port, err)
	}

	udpConn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("rudp: unexpected PacketConn type %T", pc)
	}
	return udpConn, nil
}

// dialUDP resolves the peer's socket address and connects a UDP
// socket to it. Connecting is an ordinary application convenience
// here (the sender only ever talks to the one peer address captured
// at open, per the protocol's data model) — it lets Send/Recv on the
// socket implicitly filter to datagrams from that peer.
func dialUDP(ctx context.Context, address string, port uint16) (*net.UDPConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "udp4", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, fmt.Errorf("rudp: dial peer %s:%d: %w", address, port, err)
	}
	udpConn, ok := c.(*net.UDPConn)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("rudp: unexpected Conn type %T", c)
	}
	return udpConn, nil
}
