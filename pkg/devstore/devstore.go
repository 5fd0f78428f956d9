// Package devstore provides in-memory, single-process implementations of
// the capability interfaces pkg/vtypes declares (SchemaRegistry,
// StorageEngine, DirectoryManager, FileReaderManager, GroupDirectory,
// SeriesReaderFactory, MetaCapability). The real storage engine, schema
// catalog and metadata group are explicitly out of scope for this module;
// devstore exists only so cmd/datagroupd has something to inject and run
// against for local development, using a plain map rather than an
// embedded database.
package devstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cuemby/vortex/pkg/vtypes"
)

// Store bundles every injectable capability behind one mutex-guarded,
// map-backed implementation. It is not meant to survive a restart: data
// lives only in memory except for staged files, which land under dataDir.
type Store struct {
	mu sync.RWMutex

	dataDir string

	schemas map[string]vtypes.MeasurementSchema
	paths   map[string]struct{}
	groups  map[int64]vtypes.PartitionGroup
	table   map[vtypes.Slot]int64
}

// New builds a Store rooted at dataDir, creating the staging subdirectory
// DirectoryManager.StagingRoot reports.
func New(dataDir string) (*Store, error) {
	staging := filepath.Join(dataDir, "staging")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("devstore: create staging dir: %w", err)
	}
	return &Store{
		dataDir: dataDir,
		schemas: make(map[string]vtypes.MeasurementSchema),
		paths:   make(map[string]struct{}),
		groups:  make(map[int64]vtypes.PartitionGroup),
		table:   make(map[vtypes.Slot]int64),
	}, nil
}

// SchemaRegistry

func (s *Store) Register(schema vtypes.MeasurementSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.Path] = schema
	s.paths[schema.Path] = struct{}{}
	return nil
}

func (s *Store) MatchingSchemas(prefix string) ([]vtypes.MeasurementSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vtypes.MeasurementSchema
	for path, schema := range s.schemas {
		if strings.HasPrefix(path, prefix) {
			out = append(out, schema)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// StorageEngine

func (s *Store) ApplyOperation(ctx context.Context, slot vtypes.Slot, entry vtypes.LogEntry) error {
	return nil
}

func (s *Store) IngestFile(ctx context.Context, ref vtypes.RemoteFileRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := ref.StorageGroupAndName(); !ok {
		return fmt.Errorf("devstore: ingest file: %q does not match the sequence/unsequence naming contract", ref.Path)
	}
	s.paths[ref.Path] = struct{}{}
	return nil
}

func (s *Store) AllPaths(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for path := range s.paths {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) ProcessNonQuery(ctx context.Context, plan []byte) (bool, error) {
	return true, nil
}

// DirectoryManager

func (s *Store) Contains(storageGroup, fileName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	suffix := "/" + storageGroup + "/" + fileName
	for path := range s.paths {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (s *Store) StagingRoot() string {
	return filepath.Join(s.dataDir, "staging")
}

// FileReaderManager

func (s *Store) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("devstore: open %s: %w", path, err)
	}
	return f, nil
}

// GroupDirectory

func (s *Store) SetGroup(group vtypes.PartitionGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.Header().ID] = group
}

func (s *Store) GroupOf(headerID int64) (vtypes.PartitionGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[headerID]
	return g, ok
}

// PartitionTable, borrowed read-only through MetaCapability. AssignSlot is
// the local stand-in for what a real Metadata Group Member would compute
// and push down; devstore exposes it only so a single-group deployment has
// somewhere to declare slot ownership.

func (s *Store) AssignSlot(slot vtypes.Slot, headerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[slot] = headerID
}

func (s *Store) HeaderOf(slot vtypes.Slot) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.table[slot]
	return id, ok
}

func (s *Store) SlotsOwnedBy(headerID int64) []vtypes.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vtypes.Slot
	for slot, id := range s.table {
		if id == headerID {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) PartitionTable() vtypes.PartitionTable {
	return s
}

func (s *Store) MetaLogPosition() vtypes.LogPosition {
	return vtypes.LogPosition{}
}

// SeriesReaderFactory

// emptySeriesReader satisfies vtypes.SeriesReader with no data, since
// devstore carries no real time-series values; it exists so
// querySingleSeries/fetchSingleSeries have a reader to exercise end to end.
type emptySeriesReader struct{}

func (emptySeriesReader) Next(n int) ([]vtypes.TVPair, error) { return nil, nil }
func (emptySeriesReader) DataType() vtypes.DataType           { return 0 }
func (emptySeriesReader) Close() error                        { return nil }

func (s *Store) OpenSeriesReader(ctx context.Context, path string, filter []byte, pushDownUnseq bool) (vtypes.SeriesReader, error) {
	return emptySeriesReader{}, nil
}
