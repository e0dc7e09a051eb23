package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/edgeswarm/core/packet"
	"github.com/gorilla/websocket"
)

// WebSocketTransport is an alternative gossip transport for nodes
// behind NAT/firewalls where inbound UDP is impractical: one
// long-lived outbound connection per peer, fragments framed as binary
// messages.
type WebSocketTransport struct {
	upgrader websocket.Upgrader
	server   *http.Server

	mu    sync.Mutex
	conns map[string]*websocket.Conn // addr -> outbound connection

	inbound chan packet.Fragment
}

// NewWebSocketTransport creates a transport that also listens for
// inbound peer connections at listenAddr (e.g. ":7947").
func NewWebSocketTransport(listenAddr string) (*WebSocketTransport, error) {
	t := &WebSocketTransport{
		upgrader: websocket.Upgrader{ReadBufferSize: packet.SafeMTU, WriteBufferSize: packet.SafeMTU},
		conns:    make(map[string]*websocket.Conn),
		inbound:  make(chan packet.Fragment, 256),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/gossip", t.handleInbound)
	t.server = &http.Server{Addr: listenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- t.server.ListenAndServe()
	}()
	return t, nil
}

func (t *WebSocketTransport) handleInbound(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}
		if f, ok := packet.DecodeFragment(data); ok {
			select {
			case t.inbound <- f:
			default:
			}
		}
	}
}

func (t *WebSocketTransport) dial(addr string) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[addr]; ok {
		return conn, nil
	}
	url := fmt.Sprintf("ws://%s/gossip", addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	t.conns[addr] = conn
	return conn, nil
}

// Send opens (or reuses) a websocket connection to addr and writes
// one fragment as a binary message.
func (t *WebSocketTransport) Send(ctx context.Context, addr string, f packet.Fragment) error {
	conn, err := t.dial(addr)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// Inbound returns the channel of fragments received from peers.
func (t *WebSocketTransport) Inbound() <-chan packet.Fragment { return t.inbound }

// Close shuts down the listener and every outbound connection.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	for _, c := range t.conns {
		c.Close()
	}
	t.mu.Unlock()
	return t.server.Close()
}
