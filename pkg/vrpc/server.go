package vrpc

import (
	"context"
	"fmt"
	"net"

	"github.com/cuemby/vortex/pkg/vlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Server wraps a grpc.Server bound to one Handler. CertDir, when non-empty,
// enables mTLS; an empty CertDir serves plaintext, suitable for local
// development and the tests in this module.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	addr       string
}

// NewServer builds and registers a gRPC server for handler, bound to addr.
// It does not start serving until Serve is called.
func NewServer(addr, certDir string, handler Handler) (*Server, error) {
	var opts []grpc.ServerOption
	if certDir != "" {
		creds, err := LoadServerTransportCredentials(certDir)
		if err != nil {
			return nil, fmt.Errorf("vrpc: server tls: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		opts = append(opts, grpc.Creds(insecure.NewCredentials()))
	}
	opts = append(opts, grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		resp, err := h(ctx, req)
		return resp, StatusFromError(err)
	}))

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("vrpc: listen %s: %w", addr, err)
	}

	s := grpc.NewServer(opts...)
	RegisterDataGroupMemberServer(s, handler)

	return &Server{grpcServer: s, listener: lis, addr: addr}, nil
}

// Serve blocks accepting connections until Stop is called.
func (s *Server) Serve() error {
	vlog.Logger.Info().Str("addr", s.addr).Msg("vrpc server listening")
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully drains in-flight RPCs then stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// Addr returns the bound listener address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}
