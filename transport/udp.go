// Package transport implements pluggable network I/O for the gossip
// protocol: a reference UDP transport, an optional gRPC control
// plane, and an optional websocket gossip alternative. None of these
// is hard-wired into node.Node; all sit behind the Transport
// interface so a caller can swap in a simulated or test transport.
package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/edgeswarm/core/packet"
)

// Transport sends and receives wire fragments to/from named peer
// addresses. A single consumer drains Inbound() in order and calls
// Send() for each outbound fragment; node.Node itself holds no
// Transport.
type Transport interface {
	Send(ctx context.Context, addr string, f packet.Fragment) error
	Inbound() <-chan packet.Fragment
	Close() error
}

// UDPTransport is the reference transport: one UDP socket, fragments
// sent as individual unacknowledged datagrams (SafeMTU already bounds
// each below the typical path MTU).
type UDPTransport struct {
	conn    *net.UDPConn
	inbound chan packet.Fragment
	done    chan struct{}
}

// ListenUDP opens a UDP socket at addr (e.g. ":7946") and starts the
// receive loop.
func ListenUDP(addr string) (*UDPTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	t := &UDPTransport{
		conn:    conn,
		inbound: make(chan packet.Fragment, 256),
		done:    make(chan struct{}),
	}
	go t.recvLoop()
	return t, nil
}

func (t *UDPTransport) recvLoop() {
	buf := make([]byte, packet.SafeMTU)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		if f, ok := packet.DecodeFragment(buf[:n]); ok {
			select {
			case t.inbound <- f:
			default:
				// Inbound channel full: drop rather than block the
				// read loop and stall the socket.
			}
		}
	}
}

// Send writes one fragment as a single UDP datagram to addr.
func (t *UDPTransport) Send(ctx context.Context, addr string, f packet.Fragment) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	_, err = t.conn.WriteToUDP(f.Encode(), udpAddr)
	return err
}

// Inbound returns the channel of fragments received so far.
func (t *UDPTransport) Inbound() <-chan packet.Fragment { return t.inbound }

// Close stops the receive loop and closes the socket.
func (t *UDPTransport) Close() error {
	close(t.done)
	return t.conn.Close()
}

// LocalAddr returns the socket's bound address, useful when ListenUDP
// was given ":0" for an ephemeral port (tests).
func (t *UDPTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }
