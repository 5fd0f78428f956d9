// Package vrpc serves the Data Group Member's RPC surface over
// google.golang.org/grpc. No protoc toolchain is available to generate
// message/stub code, so the service is registered by hand with a
// hand-built grpc.ServiceDesc (service.go) and the plain Go structs in
// messages.go are carried as JSON via a custom codec (codec.go) registered
// through google.golang.org/grpc/encoding — a documented extension point,
// not a workaround. This keeps the real gRPC transport, interceptor chain
// and credentials.TransportCredentials surface intact.
package vrpc
