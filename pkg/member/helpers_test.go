package member

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/cuemby/vortex/pkg/partition"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
)

type fakeTable struct {
	owner map[vtypes.Slot]int64
}

func (t *fakeTable) HeaderOf(slot vtypes.Slot) (int64, bool) {
	id, ok := t.owner[slot]
	return id, ok
}

func (t *fakeTable) SlotsOwnedBy(headerID int64) []vtypes.Slot {
	var out []vtypes.Slot
	for slot, id := range t.owner {
		if id == headerID {
			out = append(out, slot)
		}
	}
	return out
}

type fakeMeta struct {
	table vtypes.PartitionTable
	pos   vtypes.LogPosition
}

func (f *fakeMeta) PartitionTable() vtypes.PartitionTable { return f.table }
func (f *fakeMeta) MetaLogPosition() vtypes.LogPosition   { return f.pos }

type fakeSchemas struct {
	matches []vtypes.MeasurementSchema
	err     error
}

func (f *fakeSchemas) Register(vtypes.MeasurementSchema) error { return nil }
func (f *fakeSchemas) MatchingSchemas(prefix string) ([]vtypes.MeasurementSchema, error) {
	return f.matches, f.err
}

type fakeStorage struct {
	paths          []string
	pathsErr       error
	nonQueryResult bool
	nonQueryErr    error
}

func (f *fakeStorage) ApplyOperation(ctx context.Context, slot vtypes.Slot, entry vtypes.LogEntry) error {
	return nil
}
func (f *fakeStorage) IngestFile(ctx context.Context, ref vtypes.RemoteFileRef) error { return nil }
func (f *fakeStorage) AllPaths(ctx context.Context, prefix string) ([]string, error) {
	return f.paths, f.pathsErr
}
func (f *fakeStorage) ProcessNonQuery(ctx context.Context, plan []byte) (bool, error) {
	return f.nonQueryResult, f.nonQueryErr
}

type fakeDirectory struct{ root string }

func (f *fakeDirectory) Contains(storageGroup, fileName string) bool { return false }
func (f *fakeDirectory) StagingRoot() string                         { return f.root }

type fakeGroups struct {
	groups map[int64]vtypes.PartitionGroup
}

func (f *fakeGroups) GroupOf(headerID int64) (vtypes.PartitionGroup, bool) {
	g, ok := f.groups[headerID]
	return g, ok
}

type fakeSeriesReader struct {
	pairs []vtypes.TVPair
	dt    vtypes.DataType
}

func (r *fakeSeriesReader) Next(n int) ([]vtypes.TVPair, error) {
	if len(r.pairs) == 0 {
		return nil, nil
	}
	if n > len(r.pairs) {
		n = len(r.pairs)
	}
	out := r.pairs[:n]
	r.pairs = r.pairs[n:]
	return out, nil
}
func (r *fakeSeriesReader) DataType() vtypes.DataType { return r.dt }
func (r *fakeSeriesReader) Close() error              { return nil }

type fakeSeriesFactory struct {
	reader *fakeSeriesReader
	err    error
}

func (f *fakeSeriesFactory) OpenSeriesReader(ctx context.Context, path string, filter []byte, pushDownUnseq bool) (vtypes.SeriesReader, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reader, nil
}

// fakeFileReaderManager serves file content out of an in-memory map,
// implementing vtypes.FileReaderManager for ReadFileChunk tests.
type fakeFileReaderManager struct {
	files map[string][]byte
}

func (f *fakeFileReaderManager) Open(path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("fakeFileReaderManager: not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// memLogStore is a minimal in-memory vstorage.LogStore, standing in for the
// bbolt-backed store in tests that only need the Partitioned Log Manager's
// in-process behaviour.
type memLogStore struct {
	mu      sync.Mutex
	entries map[vtypes.Slot][]vtypes.LogEntry
}

func newMemLogStore() *memLogStore {
	return &memLogStore{entries: make(map[vtypes.Slot][]vtypes.LogEntry)}
}

func (s *memLogStore) AppendEntries(slot vtypes.Slot, entries []vtypes.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[slot] = append(s.entries[slot], entries...)
	return nil
}

func (s *memLogStore) Entries(slot vtypes.Slot, fromIndex uint64) ([]vtypes.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vtypes.LogEntry
	for _, e := range s.entries[slot] {
		if e.Index >= fromIndex {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memLogStore) SetLastIndexTerm(slot vtypes.Slot, index, term int64) error { return nil }

func (s *memLogStore) LastIndexTerm(slot vtypes.Slot) (int64, int64, error) { return 0, 0, nil }

func (s *memLogStore) Close() error { return nil }

func newTestManager() *partition.Manager {
	return partition.New(newMemLogStore(), zerolog.Nop())
}
