// Package server exposes the bridge over gRPC.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/logger"
)

// ServiceName is the fully qualified gRPC service name. Every method takes
// and returns a google.protobuf.Struct holding the bridge JSON types.
const ServiceName = "offhours.v1.Bridge"

// Method names.
const (
	MethodScreenCall     = "ScreenCall"
	MethodInboundMessage = "InboundMessage"
	MethodUIEvent        = "UIEvent"
	MethodDecide         = "Decide"
	MethodDND            = "DND"
	MethodCommands       = "Commands"
)

// FullMethod returns the invoke path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Server is the gRPC bridge server.
type Server struct {
	svc        *bridge.Service
	log        *logger.Logger
	grpcServer *grpc.Server
}

// bridgeServer is the handler type registered with grpc.
type bridgeServer interface {
	service() *bridge.Service
}

func (s *Server) service() *bridge.Service { return s.svc }

// New creates a gRPC server over svc.
func New(svc *bridge.Service) *Server {
	s := &Server{
		svc:        svc,
		log:        logger.Named("grpc"),
		grpcServer: grpc.NewServer(),
	}
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// Serve listens on addr and serves until stopped.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeOn(lis)
}

// ServeOn serves on an existing listener.
func (s *Server) ServeOn(lis net.Listener) error {
	s.log.Info().Str("addr", lis.Addr().String()).Msg("grpc bridge listening")
	return s.grpcServer.Serve(lis)
}

// GracefulStop drains in-flight calls and stops the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*bridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodScreenCall, (*bridge.Service).ScreenCall),
		unary(MethodInboundMessage, (*bridge.Service).InboundMessage),
		unary(MethodUIEvent, (*bridge.Service).UIEvent),
		unary(MethodDecide, (*bridge.Service).Decide),
		unary(MethodDND, (*bridge.Service).DND),
		unary(MethodCommands, (*bridge.Service).Commands),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "offhours/v1/bridge.proto",
}

// unary adapts a typed bridge call to a Struct-in, Struct-out handler.
func unary[Req, Resp any](name string, call func(*bridge.Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handle := func(ctx context.Context, raw any) (any, error) {
				req := new(Req)
				if err := bridge.FromStruct(raw.(*structpb.Struct), req); err != nil {
					return nil, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
				}
				resp, err := call(srv.(bridgeServer).service(), ctx, req)
				if err != nil {
					return nil, toStatus(err)
				}
				out, err := bridge.ToStruct(resp)
				if err != nil {
					return nil, status.Error(codes.Internal, err.Error())
				}
				return out, nil
			}
			if interceptor == nil {
				return handle(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, handle)
		},
	}
}

func toStatus(err error) error {
	if errors.Is(err, bridge.ErrBadRequest) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
