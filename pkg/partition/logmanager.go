package partition

import (
	"sync"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vstorage"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
)

// Manager is the Partitioned Log Manager. It owns the one mutex the core
// requires: no log append, snapshot install or pullSnapshot export for any
// slot may interleave with another.
type Manager struct {
	mu     sync.Mutex
	store  vstorage.LogStore
	cache  map[vtypes.Slot]vtypes.Snapshot
	index  int64
	term   int64
	logger zerolog.Logger
}

// New constructs a Partitioned Log Manager backed by store.
func New(store vstorage.LogStore, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		cache:  make(map[vtypes.Slot]vtypes.Snapshot),
		logger: logger,
	}
}

// Append durably appends entries to slot's log under the exclusive lock.
func (m *Manager) Append(slot vtypes.Slot, entries []vtypes.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.AppendEntries(slot, entries); err != nil {
		return err
	}
	last := entries[len(entries)-1]
	if int64(last.Index) > m.index {
		m.index = int64(last.Index)
		m.term = int64(last.Term)
		vmetrics.LastLogIndex.Set(float64(m.index))
	}
	return nil
}

// LastIndex returns the log manager's monotonic lastIndex.
func (m *Manager) LastIndex() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// LastTerm returns the term that produced lastIndex.
func (m *Manager) LastTerm() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.term
}

// SetLastIndexTerm installs (index, term) as the log manager's position, as
// happens when a snapshot is installed: it is set to the snapshot's
// lastIndex and never decreases thereafter. A call that would decrease
// lastIndex is ignored.
func (m *Manager) SetLastIndexTerm(index, term int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < m.index {
		return
	}
	m.index = index
	m.term = term
	vmetrics.LastLogIndex.Set(float64(m.index))
}

// GetSnapshot returns the cached snapshot for slot, or (nil, false) if
// nothing has been materialised for it yet. Reads race-free against a
// concurrent install: the caller observes either the pre- or post-install
// version, never a torn composite, because both paths take the same lock.
func (m *Manager) GetSnapshot(slot vtypes.Slot) (vtypes.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.cache[slot]
	return snap, ok
}

// InstallSnapshot replaces slot's cached snapshot, honoring the
// authoritativeness invariant: once materialised from a non-remote variant,
// a slot's snapshot is replaced only by one carrying a strictly greater
// lastIndex. Remote placeholders are always installed (there is nothing to
// compare a resolving future against yet) and a slot with no prior snapshot
// always accepts the new one. Returns true if the snapshot was installed.
func (m *Manager) InstallSnapshot(slot vtypes.Slot, snap vtypes.Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installLocked(slot, snap)
}

func (m *Manager) installLocked(slot vtypes.Slot, snap vtypes.Snapshot) bool {
	existing, ok := m.cache[slot]
	if ok {
		_, existingIsRemote := existing.(*vtypes.RemoteSnapshot)
		_, newIsRemote := snap.(*vtypes.RemoteSnapshot)
		if !existingIsRemote && !newIsRemote && snap.LastIndex() <= existing.LastIndex() {
			return false
		}
	}
	m.cache[slot] = snap
	return true
}

// TakeSnapshot forces the materialised PartitionedSnapshot to reflect all
// already-committed appends: for every slot owned by headerID, any log
// entries appended past the cached snapshot's lastIndex
// are folded into a SimpleSnapshot before the slot is exported. The whole
// operation runs under the log manager's lock so no append can land between
// the fold and the export.
func (m *Manager) TakeSnapshot(table vtypes.PartitionTable, headerID int64) *vtypes.PartitionedSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	perSlot := make(map[vtypes.Slot]vtypes.Snapshot)
	for _, slot := range table.SlotsOwnedBy(headerID) {
		if snap := m.foldLocked(slot); snap != nil {
			perSlot[slot] = snap
		}
	}
	return &vtypes.PartitionedSnapshot{PerSlot: perSlot, Index: m.index, Term: m.term}
}

func (m *Manager) foldLocked(slot vtypes.Slot) vtypes.Snapshot {
	existing := m.cache[slot]
	var fromIndex uint64
	var schemas []vtypes.MeasurementSchema
	var ops []vtypes.LogEntry
	baseIndex, baseTerm := int64(0), int64(0)

	if simple, ok := existing.(*vtypes.SimpleSnapshot); ok {
		fromIndex = uint64(simple.Index) + 1
		schemas = simple.Schemas
		ops = append(ops, simple.Operations...)
		baseIndex, baseTerm = simple.Index, simple.Term
	} else if existing != nil {
		// File/Partitioned/Remote snapshots are not folded; they are
		// already the authoritative per-slot state.
		return existing
	}

	fresh, err := m.store.Entries(slot, fromIndex)
	if err != nil {
		m.logger.Error().Err(err).Int32("slot", int32(slot)).Msg("failed to read committed log entries for snapshot export")
		return existing
	}
	if len(fresh) == 0 {
		return existing
	}

	ops = append(ops, fresh...)
	last := fresh[len(fresh)-1]
	if int64(last.Index) > baseIndex {
		baseIndex, baseTerm = int64(last.Index), int64(last.Term)
	}
	merged := &vtypes.SimpleSnapshot{Schemas: schemas, Operations: ops, Index: baseIndex, Term: baseTerm}
	m.cache[slot] = merged
	return merged
}
