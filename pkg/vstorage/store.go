package vstorage

import "github.com/cuemby/vortex/pkg/vtypes"

// LogStore is the durability seam under the Partitioned Log Manager. It
// knows nothing about snapshot variants or election state; it only persists
// the append-only per-slot log and each slot's last committed (index, term),
// a narrow persistence contract by design.
type LogStore interface {
	// AppendEntries durably appends entries to slot's log, in order.
	AppendEntries(slot vtypes.Slot, entries []vtypes.LogEntry) error
	// Entries returns every entry for slot with Index >= fromIndex, in
	// index order.
	Entries(slot vtypes.Slot, fromIndex uint64) ([]vtypes.LogEntry, error)
	// SetLastIndexTerm records slot's last applied (index, term).
	SetLastIndexTerm(slot vtypes.Slot, index, term int64) error
	// LastIndexTerm returns slot's last applied (index, term), or (0, 0)
	// if nothing has been recorded yet.
	LastIndexTerm(slot vtypes.Slot) (index int64, term int64, err error)
	// Close releases the underlying database handle.
	Close() error
}
