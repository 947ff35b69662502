package grpc

import (
	"context"

	ggrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const DirectoryServiceName = "nirog.v1.DirectoryService"

// DirectoryServiceServer is the server API of nirog.v1.DirectoryService. All
// messages are protobuf well-known types.
type DirectoryServiceServer interface {
	LoadDirectory(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Search(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetDoctor(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	BookAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMyAppointments(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ClearSession(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterDirectoryServiceServer(s ggrpc.ServiceRegistrar, srv DirectoryServiceServer) {
	s.RegisterService(&DirectoryServiceDesc, srv)
}

var DirectoryServiceDesc = ggrpc.ServiceDesc{
	ServiceName: DirectoryServiceName,
	HandlerType: (*DirectoryServiceServer)(nil),
	Methods: []ggrpc.MethodDesc{
		{
			MethodName: "LoadDirectory",
			Handler: unaryHandler("LoadDirectory", func(srv DirectoryServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error) {
				return srv.LoadDirectory(ctx, in)
			}),
		},
		{
			MethodName: "Search",
			Handler: unaryHandler("Search", func(srv DirectoryServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
				return srv.Search(ctx, in)
			}),
		},
		{
			MethodName: "GetDoctor",
			Handler: unaryHandler("GetDoctor", func(srv DirectoryServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
				return srv.GetDoctor(ctx, in)
			}),
		},
		{
			MethodName: "BookAppointment",
			Handler: unaryHandler("BookAppointment", func(srv DirectoryServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.BookAppointment(ctx, in)
			}),
		},
		{
			MethodName: "ListMyAppointments",
			Handler: unaryHandler("ListMyAppointments", func(srv DirectoryServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error) {
				return srv.ListMyAppointments(ctx, in)
			}),
		},
		{
			MethodName: "ClearSession",
			Handler: unaryHandler("ClearSession", func(srv DirectoryServiceServer, ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
				return srv.ClearSession(ctx, in)
			}),
		},
		{
			MethodName: "GetState",
			Handler: unaryHandler("GetState", func(srv DirectoryServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return srv.GetState(ctx, in)
			}),
		},
	},
	Streams: []ggrpc.StreamDesc{},
}

func fullMethod(method string) string {
	return "/" + DirectoryServiceName + "/" + method
}

func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](method string, call func(DirectoryServiceServer, context.Context, PReq) (Resp, error)) func(any, context.Context, func(any) error, ggrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor ggrpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DirectoryServiceServer), ctx, in)
		}
		info := &ggrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DirectoryServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DirectoryServiceClient is the client API of nirog.v1.DirectoryService.
type DirectoryServiceClient struct {
	cc ggrpc.ClientConnInterface
}

func NewDirectoryServiceClient(cc ggrpc.ClientConnInterface) *DirectoryServiceClient {
	return &DirectoryServiceClient{cc: cc}
}

func (c *DirectoryServiceClient) LoadDirectory(ctx context.Context, in *emptypb.Empty, opts ...ggrpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("LoadDirectory"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) Search(ctx context.Context, in *wrapperspb.StringValue, opts ...ggrpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("Search"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) GetDoctor(ctx context.Context, in *wrapperspb.StringValue, opts ...ggrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetDoctor"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) BookAppointment(ctx context.Context, in *structpb.Struct, opts ...ggrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("BookAppointment"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) ListMyAppointments(ctx context.Context, in *emptypb.Empty, opts ...ggrpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("ListMyAppointments"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) ClearSession(ctx context.Context, in *emptypb.Empty, opts ...ggrpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, fullMethod("ClearSession"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DirectoryServiceClient) GetState(ctx context.Context, in *emptypb.Empty, opts ...ggrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetState"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
