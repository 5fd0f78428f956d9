package vstorage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cuemby/vortex/pkg/vtypes"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
)

// BoltLogStore implements LogStore using BoltDB, an embedded key-value
// engine well suited to single-writer durable state. Each slot gets its own
// nested bucket under "entries" so per-slot appends never contend on a
// shared key range; "meta" holds one JSON value per slot recording its last
// (index, term).
type BoltLogStore struct {
	db *bolt.DB
}

// NewBoltLogStore opens (creating if necessary) a BoltDB file under dataDir.
func NewBoltLogStore(dataDir string) (*BoltLogStore, error) {
	dbPath := filepath.Join(dataDir, "dgm-log.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("vstorage: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("vstorage: create buckets: %w", err)
	}

	return &BoltLogStore{db: db}, nil
}

func (s *BoltLogStore) Close() error {
	return s.db.Close()
}

func slotBucketName(slot vtypes.Slot) []byte {
	return []byte(strconv.Itoa(int(slot)))
}

func indexKey(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)
	return key
}

func (s *BoltLogStore) AppendEntries(slot vtypes.Slot, entries []vtypes.LogEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bucketEntries)
		b, err := parent.CreateBucketIfNotExists(slotBucketName(slot))
		if err != nil {
			return err
		}
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("vstorage: marshal entry %d: %w", e.Index, err)
			}
			if err := b.Put(indexKey(e.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltLogStore) Entries(slot vtypes.Slot, fromIndex uint64) ([]vtypes.LogEntry, error) {
	var out []vtypes.LogEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bucketEntries)
		b := parent.Bucket(slotBucketName(slot))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(indexKey(fromIndex)); k != nil; k, v = c.Next() {
			var entry vtypes.LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("vstorage: unmarshal entry: %w", err)
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

type slotMeta struct {
	Index int64 `json:"index"`
	Term  int64 `json:"term"`
}

func (s *BoltLogStore) SetLastIndexTerm(slot vtypes.Slot, index, term int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data, err := json.Marshal(slotMeta{Index: index, Term: term})
		if err != nil {
			return err
		}
		return b.Put(slotBucketName(slot), data)
	})
}

func (s *BoltLogStore) LastIndexTerm(slot vtypes.Slot) (int64, int64, error) {
	var meta slotMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data := b.Get(slotBucketName(slot))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return 0, 0, err
	}
	return meta.Index, meta.Term, nil
}
