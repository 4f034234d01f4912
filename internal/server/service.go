package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "clash.v1.ClashService"

// ClashServiceServer is the server API for the clash service. Requests and
// responses are JSON objects carried as google.protobuf.Struct.
type ClashServiceServer interface {
	StartGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecentResults(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetServerState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReplay(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ClashServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ClashServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ClashServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ClashServiceDesc describes the clash service for grpc.Server.RegisterService.
var ClashServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClashServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartGame", Handler: unaryHandler("StartGame", ClashServiceServer.StartGame)},
		{MethodName: "SubmitCommand", Handler: unaryHandler("SubmitCommand", ClashServiceServer.SubmitCommand)},
		{MethodName: "GetView", Handler: unaryHandler("GetView", ClashServiceServer.GetView)},
		{MethodName: "ListGames", Handler: unaryHandler("ListGames", ClashServiceServer.ListGames)},
		{MethodName: "RecentResults", Handler: unaryHandler("RecentResults", ClashServiceServer.RecentResults)},
		{MethodName: "GetServerState", Handler: unaryHandler("GetServerState", ClashServiceServer.GetServerState)},
		{MethodName: "GetReplay", Handler: unaryHandler("GetReplay", ClashServiceServer.GetReplay)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clash/v1/clash.proto",
}

// RegisterClashServiceServer registers srv with s.
func RegisterClashServiceServer(s grpc.ServiceRegistrar, srv ClashServiceServer) {
	s.RegisterService(&ClashServiceDesc, srv)
}

// ClashServiceClient calls the clash service.
type ClashServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewClashServiceClient wraps a client connection.
func NewClashServiceClient(cc grpc.ClientConnInterface) *ClashServiceClient {
	return &ClashServiceClient{cc: cc}
}

// Call invokes method with req encoded as a Struct and decodes the reply
// into resp. resp may be nil.
func (c *ClashServiceClient) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return fromStruct(out, resp)
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	if v == nil {
		return &structpb.Struct{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	s := new(structpb.Struct)
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return s, nil
}

// fromStruct decodes a Struct into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
