package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/edgeswarm/core/node"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// jsonCodec lets the control-plane service speak plain JSON frames
// over gRPC instead of requiring a protoc-generated codec; the
// service is small enough (status/audit/wake) that hand-written
// request/response structs are clearer than maintaining a .proto file.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ControlStatusRequest/Response, ControlAuditRequest/Response, and
// ControlWakeRequest/Response are the NodeControl service's message
// types.
type ControlStatusRequest struct{}
type ControlStatusResponse struct {
	Status node.StatusSnapshot `json:"status"`
}
type ControlAuditRequest struct{}
type ControlAuditResponse struct {
	Triggered bool `json:"triggered"`
}
type ControlWakeRequest struct{}
type ControlWakeResponse struct{}

// NodeControlServer is implemented by a running node to answer
// control-plane calls from the daemon CLI, separate from the UDP/
// websocket gossip data plane.
type NodeControlServer interface {
	Status(context.Context, *ControlStatusRequest) (*ControlStatusResponse, error)
	TriggerAudit(context.Context, *ControlAuditRequest) (*ControlAuditResponse, error)
	ForceWake(context.Context, *ControlWakeRequest) (*ControlWakeResponse, error)
}

var nodeControlServiceDesc = grpc.ServiceDesc{
	ServiceName: "edgeswarm.NodeControl",
	HandlerType: (*NodeControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Status",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(ControlStatusRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				return srv.(NodeControlServer).Status(ctx, req)
			},
		},
		{
			MethodName: "TriggerAudit",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(ControlAuditRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				return srv.(NodeControlServer).TriggerAudit(ctx, req)
			},
		},
		{
			MethodName: "ForceWake",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(ControlWakeRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				return srv.(NodeControlServer).ForceWake(ctx, req)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "edgeswarm/control.proto",
}

// ServerCloser tracks every gRPC server started so a daemon shutdown
// can stop them all.
type ServerCloser struct {
	servers []*grpc.Server
}

// Add registers a server for later Close.
func (s *ServerCloser) Add(server *grpc.Server) { s.servers = append(s.servers, server) }

// Close gracefully stops every tracked server.
func (s *ServerCloser) Close() {
	for _, srv := range s.servers {
		srv.GracefulStop()
	}
}

// ServeControlPlane starts the NodeControl gRPC service on addr,
// returning the server (for ServerCloser) and listener address.
func ServeControlPlane(addr string, impl NodeControlServer) (*grpc.Server, net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	srv := grpc.NewServer()
	srv.RegisterService(&nodeControlServiceDesc, impl)
	go func() {
		_ = srv.Serve(lis)
	}()
	return srv, lis.Addr(), nil
}

// DialControlPlane opens a client connection to a NodeControl server.
func DialControlPlane(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")))
}

// ControlClient is a thin typed wrapper over the raw gRPC connection.
type ControlClient struct {
	conn *grpc.ClientConn
}

// NewControlClient wraps an established connection.
func NewControlClient(conn *grpc.ClientConn) *ControlClient { return &ControlClient{conn: conn} }

func (c *ControlClient) Status(ctx context.Context) (*ControlStatusResponse, error) {
	out := new(ControlStatusResponse)
	err := c.conn.Invoke(ctx, "/edgeswarm.NodeControl/Status", new(ControlStatusRequest), out, grpc.CallContentSubtype("json"))
	return out, err
}

func (c *ControlClient) TriggerAudit(ctx context.Context) (*ControlAuditResponse, error) {
	out := new(ControlAuditResponse)
	err := c.conn.Invoke(ctx, "/edgeswarm.NodeControl/TriggerAudit", new(ControlAuditRequest), out, grpc.CallContentSubtype("json"))
	return out, err
}

func (c *ControlClient) ForceWake(ctx context.Context) (*ControlWakeResponse, error) {
	out := new(ControlWakeResponse)
	err := c.conn.Invoke(ctx, "/edgeswarm.NodeControl/ForceWake", new(ControlWakeRequest), out, grpc.CallContentSubtype("json"))
	return out, err
}
