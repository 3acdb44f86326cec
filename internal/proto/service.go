// Package proto defines the cashcare.auth.v1.AuthService gRPC contract.
// Messages travel as protobuf well-known types and are exposed to callers
// as plain Go structs.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "cashcare.auth.v1.AuthService"

const (
	AuthService_Register_FullMethodName = "/" + ServiceName + "/Register"
	AuthService_Login_FullMethodName    = "/" + ServiceName + "/Login"
	AuthService_Refresh_FullMethodName  = "/" + ServiceName + "/Refresh"
	AuthService_Logout_FullMethodName   = "/" + ServiceName + "/Logout"
	AuthService_WhoAmI_FullMethodName   = "/" + ServiceName + "/WhoAmI"
)

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*TokenPair, error)
	// Refresh and Logout take the refresh token.
	Refresh(context.Context, string) (*TokenPair, error)
	Logout(context.Context, string) error
	// WhoAmI needs a bearer access token in the authorization metadata.
	WhoAmI(context.Context) (*Profile, error)
}

// UnimplementedAuthServiceServer can be embedded to have forward compatible
// implementations.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) Refresh(context.Context, string) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}
func (UnimplementedAuthServiceServer) Logout(context.Context, string) error {
	return status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedAuthServiceServer) WhoAmI(context.Context) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method WhoAmI not implemented")
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

// unary runs call through the interceptor chain, if any.
func unary(ctx context.Context, srv any, req any, method string, interceptor grpc.UnaryServerInterceptor,
	call func(ctx context.Context, req any) (any, error)) (any, error) {
	if interceptor == nil {
		return call(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
	return interceptor(ctx, req, info, call)
}

func _AuthService_Register_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	return unary(ctx, srv, registerRequestFrom(in), AuthService_Register_FullMethodName, interceptor,
		func(ctx context.Context, req any) (any, error) {
			out, err := srv.(AuthServiceServer).Register(ctx, req.(*RegisterRequest))
			if err != nil {
				return nil, err
			}
			return out.toStruct(), nil
		})
}

func _AuthService_Login_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	return unary(ctx, srv, loginRequestFrom(in), AuthService_Login_FullMethodName, interceptor,
		func(ctx context.Context, req any) (any, error) {
			out, err := srv.(AuthServiceServer).Login(ctx, req.(*LoginRequest))
			if err != nil {
				return nil, err
			}
			return out.toStruct(), nil
		})
}

func _AuthService_Refresh_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	return unary(ctx, srv, in.GetValue(), AuthService_Refresh_FullMethodName, interceptor,
		func(ctx context.Context, req any) (any, error) {
			out, err := srv.(AuthServiceServer).Refresh(ctx, req.(string))
			if err != nil {
				return nil, err
			}
			return out.toStruct(), nil
		})
}

func _AuthService_Logout_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	return unary(ctx, srv, in.GetValue(), AuthService_Logout_FullMethodName, interceptor,
		func(ctx context.Context, req any) (any, error) {
			if err := srv.(AuthServiceServer).Logout(ctx, req.(string)); err != nil {
				return nil, err
			}
			return &emptypb.Empty{}, nil
		})
}

func _AuthService_WhoAmI_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	return unary(ctx, srv, in, AuthService_WhoAmI_FullMethodName, interceptor,
		func(ctx context.Context, _ any) (any, error) {
			out, err := srv.(AuthServiceServer).WhoAmI(ctx)
			if err != nil {
				return nil, err
			}
			return out.toStruct(), nil
		})
}

// AuthService_ServiceDesc is the grpc.ServiceDesc for AuthService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: _AuthService_Register_Handler},
		{MethodName: "Login", Handler: _AuthService_Login_Handler},
		{MethodName: "Refresh", Handler: _AuthService_Refresh_Handler},
		{MethodName: "Logout", Handler: _AuthService_Logout_Handler},
		{MethodName: "WhoAmI", Handler: _AuthService_WhoAmI_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cashcare/auth/v1/auth.proto",
}

// AuthServiceClient is the client API for AuthService.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_Register_FullMethodName, in.toStruct(), out, opts...); err != nil {
		return nil, err
	}
	return registerResponseFrom(out), nil
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_Login_FullMethodName, in.toStruct(), out, opts...); err != nil {
		return nil, err
	}
	return tokenPairFrom(out)
}

func (c *AuthServiceClient) Refresh(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*TokenPair, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_Refresh_FullMethodName, wrapperspb.String(refreshToken), out, opts...); err != nil {
		return nil, err
	}
	return tokenPairFrom(out)
}

func (c *AuthServiceClient) Logout(ctx context.Context, refreshToken string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, AuthService_Logout_FullMethodName, wrapperspb.String(refreshToken), new(emptypb.Empty), opts...)
}

func (c *AuthServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*Profile, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_WhoAmI_FullMethodName, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return profileFrom(out), nil
}
