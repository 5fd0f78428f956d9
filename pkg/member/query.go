package member

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cuemby/vortex/pkg/vquery"
	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// syncLeader is the catch-up check performed before answering a
// read locally: a leader is always caught up with itself, a follower is
// considered caught up once an election AGREE has set state.leader, and an
// elector with no leader at all cannot answer reads yet. SendSnapshot does
// not set state.leader.
func (m *Member) syncLeader() error {
	if m.Role() == RoleLeader {
		return nil
	}
	if _, ok := m.Leader(); ok {
		return nil
	}
	return fmt.Errorf("%w: group members %v", vtypes.ErrLeaderUnknown, m.Group().Members)
}

// QuerySingleSeries implements vrpc.Handler.QuerySingleSeries: it builds a
// point-reader over the requested path once local
// catch-up with the leader is confirmed, and registers it under the
// caller's query context.
func (m *Member) QuerySingleSeries(ctx context.Context, req *vrpc.QuerySingleSeriesRequest) (*vrpc.QuerySingleSeriesResponse, error) {
	if err := m.syncLeader(); err != nil {
		return nil, err
	}
	if m.series == nil {
		return nil, fmt.Errorf("member: no series reader factory configured")
	}

	reader, err := m.series.OpenSeriesReader(ctx, req.Path, req.FilterBytes, req.PushDownUnseq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vtypes.ErrStorageEngine, err)
	}

	qctx := m.registry.GetQueryContext(req.Requester, req.QueryID)
	id := m.registry.RegisterReader(qctx, reader)
	return &vrpc.QuerySingleSeriesResponse{ReaderID: id}, nil
}

// FetchSingleSeries implements vrpc.Handler.FetchSingleSeries. The response
// begins with the reader's data-type ordinal, then each
// (time, value) pair as a big-endian int64 time followed by the raw value
// bytes prefixed by their own big-endian uint32 length.
func (m *Member) FetchSingleSeries(ctx context.Context, req *vrpc.FetchSingleSeriesRequest) (*vrpc.FetchSingleSeriesResponse, error) {
	reader, ok := m.registry.GetReader(req.ReaderID)
	if !ok {
		return nil, vquery.ErrReaderNotFound(req.ReaderID)
	}
	series, ok := reader.(vtypes.SeriesReader)
	if !ok {
		return nil, fmt.Errorf("member: reader %d is not a series reader", req.ReaderID)
	}

	pairs, err := series.Next(int(req.FetchSize))
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return &vrpc.FetchSingleSeriesResponse{Data: nil}, nil
	}

	buf := make([]byte, 1, 1+len(pairs)*16)
	buf[0] = byte(series.DataType())
	for _, p := range pairs {
		var tbuf [8]byte
		binary.BigEndian.PutUint64(tbuf[:], uint64(p.Time))
		buf = append(buf, tbuf[:]...)

		var lbuf [4]byte
		binary.BigEndian.PutUint32(lbuf[:], uint32(len(p.Value)))
		buf = append(buf, lbuf[:]...)
		buf = append(buf, p.Value...)
	}
	return &vrpc.FetchSingleSeriesResponse{Data: buf}, nil
}

// PullTimeSeriesSchema implements vrpc.Handler.PullTimeSeriesSchema: local
// catch-up failure forwards the whole request to the leader rather than
// failing outright, since schema lookups are idempotent and safe to retry
// against whichever member can answer them.
func (m *Member) PullTimeSeriesSchema(ctx context.Context, req *vrpc.PullSchemaRequest) (*vrpc.PullSchemaResponse, error) {
	if err := m.syncLeader(); err != nil {
		out, ferr := forwardToLeader(ctx, m, "PullTimeSeriesSchema", func(c *vrpc.Client) (any, error) {
			return c.PullTimeSeriesSchema(ctx, req)
		})
		if ferr != nil {
			return nil, ferr
		}
		return out.(*vrpc.PullSchemaResponse), nil
	}

	schemas, err := m.schemas.MatchingSchemas(req.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vtypes.ErrMetadataError, err)
	}
	return &vrpc.PullSchemaResponse{Schemas: schemas}, nil
}

// EndQuery implements vrpc.Handler.EndQuery.
func (m *Member) EndQuery(ctx context.Context, req *vrpc.EndQueryRequest) (*vrpc.AckResponse, error) {
	m.registry.EndQuery(req.Requester, req.QueryID)
	return &vrpc.AckResponse{OK: true}, nil
}

// GetAllPaths implements vrpc.Handler.GetAllPaths.
func (m *Member) GetAllPaths(ctx context.Context, req *vrpc.GetAllPathsRequest) (*vrpc.GetAllPathsResponse, error) {
	paths, err := m.storage.AllPaths(ctx, req.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vtypes.ErrMetadataError, err)
	}
	return &vrpc.GetAllPathsResponse{Paths: paths}, nil
}

// ExecuteNonQuery implements vrpc.Handler.ExecuteNonQuery: a leader answers
// from its own storage engine when the engine reports the plan handled; any
// other role, or a leader whose engine did not handle the plan, forwards the
// plan whole to the known leader.
func (m *Member) ExecuteNonQuery(ctx context.Context, req *vrpc.ExecuteNonQueryRequest) (*vrpc.ExecuteNonQueryResponse, error) {
	if m.Role() == RoleLeader {
		handled, err := m.storage.ProcessNonQuery(ctx, req.Plan)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vtypes.ErrStorageEngine, err)
		}
		if handled {
			return &vrpc.ExecuteNonQueryResponse{Handled: true}, nil
		}
	}

	out, err := forwardToLeader(ctx, m, "ExecuteNonQuery", func(c *vrpc.Client) (any, error) {
		return c.ExecuteNonQuery(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*vrpc.ExecuteNonQueryResponse), nil
}
