package vrpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC full service name this module registers under.
const ServiceName = "vortex.DataGroupMember"

// Handler is the method set a Data Group Member implements to back this
// service. pkg/member.Member satisfies it; vrpc never imports pkg/member,
// keeping the dependency one-directional (member depends on vrpc as a
// client, not the reverse).
type Handler interface {
	SendSnapshot(ctx context.Context, req *SendSnapshotRequest) (*AckResponse, error)
	PullSnapshot(ctx context.Context, req *PullSnapshotRequest) (*PullSnapshotResponse, error)
	PullTimeSeriesSchema(ctx context.Context, req *PullSchemaRequest) (*PullSchemaResponse, error)
	QuerySingleSeries(ctx context.Context, req *QuerySingleSeriesRequest) (*QuerySingleSeriesResponse, error)
	FetchSingleSeries(ctx context.Context, req *FetchSingleSeriesRequest) (*FetchSingleSeriesResponse, error)
	EndQuery(ctx context.Context, req *EndQueryRequest) (*AckResponse, error)
	GetAllPaths(ctx context.Context, req *GetAllPathsRequest) (*GetAllPathsResponse, error)
	ProcessElection(ctx context.Context, req *ElectionRequest) (*ElectionResponse, error)
	ReadFileChunk(ctx context.Context, req *ReadFileChunkRequest) (*ReadFileChunkResponse, error)
	ExecuteNonQuery(ctx context.Context, req *ExecuteNonQueryRequest) (*ExecuteNonQueryResponse, error)
}

// RegisterDataGroupMemberServer registers srv against s using the
// hand-built ServiceDesc below, the same call shape generated code expects
// callers to make.
func RegisterDataGroupMemberServer(s *grpc.Server, srv Handler) {
	s.RegisterService(&dataGroupMemberServiceDesc, srv)
}

func sendSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).SendSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/SendSnapshot"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).SendSnapshot(ctx, req.(*SendSnapshotRequest))
	})
}

func pullSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PullSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).PullSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/PullSnapshot"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).PullSnapshot(ctx, req.(*PullSnapshotRequest))
	})
}

func pullTimeSeriesSchemaHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PullSchemaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).PullTimeSeriesSchema(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/PullTimeSeriesSchema"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).PullTimeSeriesSchema(ctx, req.(*PullSchemaRequest))
	})
}

func querySingleSeriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QuerySingleSeriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).QuerySingleSeries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/QuerySingleSeries"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).QuerySingleSeries(ctx, req.(*QuerySingleSeriesRequest))
	})
}

func fetchSingleSeriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FetchSingleSeriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).FetchSingleSeries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/FetchSingleSeries"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).FetchSingleSeries(ctx, req.(*FetchSingleSeriesRequest))
	})
}

func endQueryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EndQueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).EndQuery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/EndQuery"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).EndQuery(ctx, req.(*EndQueryRequest))
	})
}

func getAllPathsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAllPathsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).GetAllPaths(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/GetAllPaths"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).GetAllPaths(ctx, req.(*GetAllPathsRequest))
	})
}

func processElectionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ElectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).ProcessElection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ProcessElection"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).ProcessElection(ctx, req.(*ElectionRequest))
	})
}

func readFileChunkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReadFileChunkRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).ReadFileChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ReadFileChunk"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).ReadFileChunk(ctx, req.(*ReadFileChunkRequest))
	})
}

func executeNonQueryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecuteNonQueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).ExecuteNonQuery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ExecuteNonQuery"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).ExecuteNonQuery(ctx, req.(*ExecuteNonQueryRequest))
	})
}

var dataGroupMemberServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendSnapshot", Handler: sendSnapshotHandler},
		{MethodName: "PullSnapshot", Handler: pullSnapshotHandler},
		{MethodName: "PullTimeSeriesSchema", Handler: pullTimeSeriesSchemaHandler},
		{MethodName: "QuerySingleSeries", Handler: querySingleSeriesHandler},
		{MethodName: "FetchSingleSeries", Handler: fetchSingleSeriesHandler},
		{MethodName: "EndQuery", Handler: endQueryHandler},
		{MethodName: "GetAllPaths", Handler: getAllPathsHandler},
		{MethodName: "ProcessElection", Handler: processElectionHandler},
		{MethodName: "ReadFileChunk", Handler: readFileChunkHandler},
		{MethodName: "ExecuteNonQuery", Handler: executeNonQueryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/vrpc/service.go",
}
