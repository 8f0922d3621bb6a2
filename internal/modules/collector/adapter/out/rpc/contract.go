package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey   = "meter"
	serviceName    = "rescollect.meter.v1.Meter"
	jsonCodecName  = "json"
	methodDescribe = "/" + serviceName + "/Describe"
	methodRead     = "/" + serviceName + "/Read"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "RESCOLLECT_METER",
	MagicCookieValue: "rescollect",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Description struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Reading carries one meter value; Mode is "freq" or "rk".
type Reading struct {
	Mode  string  `json:"mode"`
	Value float64 `json:"value"`
}

type MeterServer interface {
	Describe(ctx context.Context, in *Empty) (*Description, error)
	Read(ctx context.Context, in *Empty) (*Reading, error)
}

type MeterClient interface {
	Describe(ctx context.Context) (*Description, error)
	Read(ctx context.Context) (*Reading, error)
}

type meterClient struct {
	conn *grpc.ClientConn
}

func NewMeterClient(conn *grpc.ClientConn) MeterClient {
	return &meterClient{conn: conn}
}

func (c *meterClient) Describe(ctx context.Context) (*Description, error) {
	out := &Description{}
	if err := c.conn.Invoke(ctx, methodDescribe, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterClient) Read(ctx context.Context) (*Reading, error) {
	out := &Reading{}
	if err := c.conn.Invoke(ctx, methodRead, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterMeterServer(server grpc.ServiceRegistrar, impl MeterServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*MeterServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Describe", Handler: unaryHandler(methodDescribe, impl.Describe)},
			{MethodName: "Read", Handler: unaryHandler(methodRead, impl.Read)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "rescollect/meter-rpc-v1",
	}, impl)
}

func unaryHandler[Resp any](fullMethod string, call func(context.Context, *Empty) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := &Empty{}
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			empty, ok := req.(*Empty)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, empty)
		}
		return interceptor(ctx, in, info, handler)
	}
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl MeterServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterMeterServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewMeterClient(conn), nil
}

func PluginMap(impl MeterServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
