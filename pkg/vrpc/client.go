package vrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Client is a thin wrapper over a grpc.ClientConn that invokes this
// service's methods with the JSON codec, since no generated stub exists to
// do it for us. It implements filepull.RemoteFileReader (ReadFile), so the
// File Puller can take it as its transport seam without importing vrpc
// itself. vscheduler.SnapshotFetcher is implemented by member.Transport,
// which calls PullSnapshot on a Client per group member.
type Client struct {
	conn *grpc.ClientConn
	addr string
}

// Dial connects to a peer at addr. certDir enables mTLS, matching
// NewServer's convention; serverName is required whenever certDir is set.
func Dial(ctx context.Context, addr, certDir, serverName string) (*Client, error) {
	var opts []grpc.DialOption
	if certDir != "" {
		creds, err := LoadClientTransportCredentials(certDir, serverName)
		if err != nil {
			return nil, fmt.Errorf("vrpc: client tls: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("vrpc: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, addr: addr}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	fullMethod := fmt.Sprintf("/%s/%s", ServiceName, method)
	if err := c.conn.Invoke(ctx, fullMethod, in, out); err != nil {
		return fmt.Errorf("vrpc: %s: %w", method, err)
	}
	return nil
}

func (c *Client) SendSnapshot(ctx context.Context, req *SendSnapshotRequest) (*AckResponse, error) {
	out := new(AckResponse)
	if err := c.invoke(ctx, "SendSnapshot", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PullSnapshot(ctx context.Context, req *PullSnapshotRequest) (*PullSnapshotResponse, error) {
	out := new(PullSnapshotResponse)
	if err := c.invoke(ctx, "PullSnapshot", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PullTimeSeriesSchema(ctx context.Context, req *PullSchemaRequest) (*PullSchemaResponse, error) {
	out := new(PullSchemaResponse)
	if err := c.invoke(ctx, "PullTimeSeriesSchema", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) QuerySingleSeries(ctx context.Context, req *QuerySingleSeriesRequest) (*QuerySingleSeriesResponse, error) {
	out := new(QuerySingleSeriesResponse)
	if err := c.invoke(ctx, "QuerySingleSeries", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchSingleSeries(ctx context.Context, req *FetchSingleSeriesRequest) (*FetchSingleSeriesResponse, error) {
	out := new(FetchSingleSeriesResponse)
	if err := c.invoke(ctx, "FetchSingleSeries", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EndQuery(ctx context.Context, req *EndQueryRequest) (*AckResponse, error) {
	out := new(AckResponse)
	if err := c.invoke(ctx, "EndQuery", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAllPaths(ctx context.Context, req *GetAllPathsRequest) (*GetAllPathsResponse, error) {
	out := new(GetAllPathsResponse)
	if err := c.invoke(ctx, "GetAllPaths", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProcessElection(ctx context.Context, req *ElectionRequest) (*ElectionResponse, error) {
	out := new(ElectionResponse)
	if err := c.invoke(ctx, "ProcessElection", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExecuteNonQuery(ctx context.Context, req *ExecuteNonQueryRequest) (*ExecuteNonQueryResponse, error) {
	out := new(ExecuteNonQueryResponse)
	if err := c.invoke(ctx, "ExecuteNonQuery", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile implements filepull.RemoteFileReader: one chunk per call, the
// File Puller supplies its own per-call timeout via ctx.
func (c *Client) ReadFile(ctx context.Context, path string, offset, length int64, groupHeader string) ([]byte, error) {
	out := new(ReadFileChunkResponse)
	req := &ReadFileChunkRequest{Path: path, Offset: offset, Length: length, GroupHeader: groupHeader}
	if err := c.invoke(ctx, "ReadFileChunk", req, out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// StatusFromError maps a sentinel error to the gRPC status the handler
// returns: LeaderUnknown->FailedPrecondition, ReaderNotFound->NotFound,
// everything else internal-domain ->Internal.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch {
	case isLeaderUnknown(err):
		code = codes.FailedPrecondition
	case isReaderNotFound(err):
		code = codes.NotFound
	}
	return status.Error(code, err.Error())
}
