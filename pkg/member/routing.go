package member

import (
	"context"
	"fmt"
	"io"

	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vsnapshot"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// snapshotDeps builds the vsnapshot.Dependencies bundle from the
// capabilities this Member was constructed with.
func (m *Member) snapshotDeps() vsnapshot.Dependencies {
	return vsnapshot.Dependencies{
		Schemas:       m.schemas,
		Storage:       m.storage,
		Directory:     m.directory,
		Puller:        m.puller,
		LogManager:    m.logManager,
		Groups:        m.groups,
		Meta:          m.meta,
		LocalHeaderID: m.Group().Header().ID,
		Logger:        m.logger,
	}
}

// PullSnapshot implements vrpc.Handler.PullSnapshot: a follower forwards
// the request whole to the leader; the leader forces a fresh export via
// TakeSnapshot and answers with only the slots both requested and
// currently held by the local header.
func (m *Member) PullSnapshot(ctx context.Context, req *vrpc.PullSnapshotRequest) (*vrpc.PullSnapshotResponse, error) {
	if m.Role() != RoleLeader {
		out, err := forwardToLeader(ctx, m, "PullSnapshot", func(c *vrpc.Client) (any, error) {
			return c.PullSnapshot(ctx, req)
		})
		if err != nil {
			return nil, err
		}
		return out.(*vrpc.PullSnapshotResponse), nil
	}

	if m.meta == nil {
		return nil, fmt.Errorf("member: pullSnapshot requires a metadata capability")
	}
	headerID := m.Group().Header().ID
	exported := m.logManager.TakeSnapshot(m.meta.PartitionTable(), headerID)

	requested := make(map[vtypes.Slot]bool, len(req.Slots))
	for _, s := range req.Slots {
		requested[vtypes.Slot(s)] = true
	}

	out := make(map[int32]*vrpc.SnapshotWire, len(req.Slots))
	for slot, snap := range exported.PerSlot {
		if !requested[slot] {
			continue
		}
		wire, err := vrpc.SnapshotToWire(snap)
		if err != nil {
			return nil, err
		}
		out[int32(slot)] = wire
	}

	return &vrpc.PullSnapshotResponse{Snapshots: out}, nil
}

// ReadFileChunk implements vrpc.Handler.ReadFileChunk: the server side of
// the chunked file transfer, serving up to req.Length bytes of the local
// file at req.Path starting at req.Offset.
func (m *Member) ReadFileChunk(ctx context.Context, req *vrpc.ReadFileChunkRequest) (*vrpc.ReadFileChunkResponse, error) {
	if m.files == nil {
		return nil, fmt.Errorf("member: no file reader manager configured")
	}
	f, err := m.files.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("member: open %s: %w", req.Path, err)
	}
	defer f.Close()

	if seeker, ok := f.(io.Seeker); ok {
		if _, err := seeker.Seek(req.Offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("member: seek %s: %w", req.Path, err)
		}
	} else if req.Offset > 0 {
		if _, err := io.CopyN(io.Discard, f, req.Offset); err != nil {
			return nil, fmt.Errorf("member: skip to offset in %s: %w", req.Path, err)
		}
	}

	buf := make([]byte, req.Length)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("member: read %s: %w", req.Path, err)
	}
	return &vrpc.ReadFileChunkResponse{Data: buf[:n]}, nil
}

// SendSnapshot implements vrpc.Handler.SendSnapshot: it deserialises the
// incoming snapshot and dispatches it through the exhaustive apply switch,
// serialised by the log manager's own lock.
func (m *Member) SendSnapshot(ctx context.Context, req *vrpc.SendSnapshotRequest) (*vrpc.AckResponse, error) {
	snap, err := vrpc.SnapshotFromWire(req.Snapshot)
	if err != nil {
		return nil, err
	}
	if err := vsnapshot.ApplyToSlot(ctx, m.snapshotDeps(), vtypes.Slot(req.Slot), snap); err != nil {
		return &vrpc.AckResponse{OK: false}, err
	}
	return &vrpc.AckResponse{OK: true}, nil
}
