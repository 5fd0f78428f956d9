package vsnapshot

import (
	"context"
	"time"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
)

// FilePuller is the seam into the File Puller that ApplyToSlot needs to
// materialise a FileSnapshot's remote file references.
type FilePuller interface {
	LoadRemoteFile(
		ctx context.Context,
		ref vtypes.RemoteFileRef,
		group vtypes.PartitionGroup,
		storage vtypes.StorageEngine,
		persist func(vtypes.RemoteFileRef) error,
	) (vtypes.RemoteFileRef, error)
}

// LogManager is the seam into the Partitioned Log Manager ApplyToSlot needs
// to record a pulled file's staged path back into the authoritative
// snapshot cache, and to advance the log position a partitioned apply
// brings in.
type LogManager interface {
	InstallSnapshot(slot vtypes.Slot, snap vtypes.Snapshot) bool
	GetSnapshot(slot vtypes.Slot) (vtypes.Snapshot, bool)
	SetLastIndexTerm(index, term int64)
}

// Dependencies bundles the capability handles snapshot application calls
// through; the core never constructs any of these.
type Dependencies struct {
	Schemas       vtypes.SchemaRegistry
	Storage       vtypes.StorageEngine
	Directory     vtypes.DirectoryManager
	Puller        FilePuller
	LogManager    LogManager
	Groups        vtypes.GroupDirectory
	Meta          vtypes.MetaCapability
	LocalHeaderID int64
	Logger        zerolog.Logger
}

func variantLabel(kind vtypes.SnapshotKind) string {
	switch kind {
	case vtypes.SnapshotSimple:
		return "simple"
	case vtypes.SnapshotFile:
		return "file"
	case vtypes.SnapshotPartitioned:
		return "partitioned"
	case vtypes.SnapshotRemoteSimple:
		return "remote_simple"
	case vtypes.SnapshotRemoteFile:
		return "remote_file"
	default:
		return "unknown"
	}
}

// ApplyToSlot is the exhaustive snapshot dispatch. It type-switches on the
// concrete Snapshot variant, applying whatever that
// variant carries to slot. An unrecognised variant is logged, nothing is
// applied for it, and ErrUnrecognisedSnapshot is returned; it never panics,
// and inside a partitioned apply the remaining slots still apply.
func ApplyToSlot(ctx context.Context, deps Dependencies, slot vtypes.Slot, snap vtypes.Snapshot) error {
	if snap == nil {
		return nil
	}
	start := timeNow()
	label := variantLabel(snap.Kind())
	defer func() {
		vmetrics.SnapshotApplyDuration.WithLabelValues(label).Observe(timeNow().Sub(start).Seconds())
	}()

	switch s := snap.(type) {
	case *vtypes.SimpleSnapshot:
		return applySimple(ctx, deps, slot, s)
	case *vtypes.FileSnapshot:
		return applyFile(ctx, deps, slot, s)
	case *vtypes.PartitionedSnapshot:
		return ApplyPartitioned(ctx, deps, s)
	case *vtypes.RemoteSnapshot:
		resolved, err := s.Resolve()
		if err != nil {
			return err
		}
		return ApplyToSlot(ctx, deps, slot, resolved)
	default:
		deps.Logger.Warn().Int32("slot", int32(slot)).Msg("unrecognised snapshot variant, skipping")
		return vtypes.ErrUnrecognisedSnapshot(snap.Kind())
	}
}

func applySimple(ctx context.Context, deps Dependencies, slot vtypes.Slot, s *vtypes.SimpleSnapshot) error {
	for _, schema := range s.Schemas {
		if err := deps.Schemas.Register(schema); err != nil {
			deps.Logger.Warn().Err(err).Str("measurement", schema.Path).Msg("schema registration failed during snapshot apply")
		}
	}

	for _, entry := range s.Operations {
		if err := deps.Storage.ApplyOperation(ctx, slot, entry); err != nil {
			deps.Logger.Warn().Err(err).Int32("slot", int32(slot)).Uint64("index", entry.Index).Msg("log entry apply failed, skipping")
			continue
		}
	}

	deps.LogManager.InstallSnapshot(slot, s)
	return nil
}

func applyFile(ctx context.Context, deps Dependencies, slot vtypes.Slot, s *vtypes.FileSnapshot) error {
	for _, schema := range s.Schemas {
		if err := deps.Schemas.Register(schema); err != nil {
			deps.Logger.Warn().Err(err).Str("measurement", schema.Path).Msg("schema registration failed during snapshot apply")
		}
	}

	pulled := make([]vtypes.RemoteFileRef, 0, len(s.Files))
	for _, ref := range s.Files {
		storageGroup, fileName, ok := ref.StorageGroupAndName()
		if ok && deps.Directory.Contains(storageGroup, fileName) {
			// Already pulled by an earlier cycle; keep the existing ref as-is.
			pulled = append(pulled, ref)
			continue
		}

		group, ok := deps.Groups.GroupOf(ref.Source.ID)
		if !ok {
			group = vtypes.PartitionGroup{Members: []vtypes.Node{ref.Source}}
		}

		staged, err := deps.Puller.LoadRemoteFile(ctx, ref, group, deps.Storage, func(vtypes.RemoteFileRef) error { return nil })
		if err != nil {
			deps.Logger.Warn().Err(err).Str("path", ref.Path).Msg("file snapshot pull failed, leaving for next apply cycle")
			pulled = append(pulled, ref)
			continue
		}
		pulled = append(pulled, staged)
	}

	merged := &vtypes.FileSnapshot{Schemas: s.Schemas, Files: pulled, Index: s.Index, Term: s.Term}
	deps.LogManager.InstallSnapshot(slot, merged)
	return nil
}

// ApplyPartitioned recurses into every sub-snapshot of a PartitionedSnapshot
// that the local header currently holds; a slot the partition table no
// longer assigns to this header is left untouched, since the sender's own
// TakeSnapshot export only restricts slots on its side, not on whoever
// applies the result later. When deps.Meta is nil, there is no partition
// table to filter against, so every slot in the snapshot is applied as-is.
// After the per-slot loop, the log manager's (lastIndex, lastTerm) is
// advanced to the snapshot's own, matching a simple or file snapshot apply.
func ApplyPartitioned(ctx context.Context, deps Dependencies, s *vtypes.PartitionedSnapshot) error {
	var owned map[vtypes.Slot]bool
	if deps.Meta != nil {
		slots := deps.Meta.PartitionTable().SlotsOwnedBy(deps.LocalHeaderID)
		owned = make(map[vtypes.Slot]bool, len(slots))
		for _, slot := range slots {
			owned[slot] = true
		}
	}

	var firstErr error
	for slot, sub := range s.PerSlot {
		if owned != nil && !owned[slot] {
			deps.Logger.Debug().Int32("slot", int32(slot)).Msg("partitioned snapshot slot not held by local header, ignoring")
			continue
		}
		if err := ApplyToSlot(ctx, deps, slot, sub); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	deps.LogManager.SetLastIndexTerm(s.Index, s.Term)
	return firstErr
}

// timeNow exists so apply.go has one seam to stub in tests without pulling
// in a wall-clock dependency elsewhere in the package.
var timeNow = time.Now
