package partition

import (
	"sync"
	"testing"

	"github.com/cuemby/vortex/pkg/vstorage"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := vstorage.NewBoltLogStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, zerolog.Nop())
}

func TestInstallSnapshot_AuthoritativeReplaceOnlyOnGreaterIndex(t *testing.T) {
	m := newTestManager(t)

	first := &vtypes.SimpleSnapshot{Index: 10, Term: 1}
	require.True(t, m.InstallSnapshot(1, first))

	stale := &vtypes.SimpleSnapshot{Index: 5, Term: 1}
	require.False(t, m.InstallSnapshot(1, stale))

	got, ok := m.GetSnapshot(1)
	require.True(t, ok)
	require.Equal(t, int64(10), got.LastIndex())

	fresher := &vtypes.SimpleSnapshot{Index: 11, Term: 1}
	require.True(t, m.InstallSnapshot(1, fresher))
	got, ok = m.GetSnapshot(1)
	require.True(t, ok)
	require.Equal(t, int64(11), got.LastIndex())
}

func TestSetLastIndexTerm_MonotonicNonDecreasing(t *testing.T) {
	m := newTestManager(t)
	m.SetLastIndexTerm(100, 5)
	m.SetLastIndexTerm(50, 9) // must be ignored: would decrease index
	require.Equal(t, int64(100), m.LastIndex())
	require.Equal(t, int64(5), m.LastTerm())

	m.SetLastIndexTerm(150, 6)
	require.Equal(t, int64(150), m.LastIndex())
	require.Equal(t, int64(6), m.LastTerm())
}

// TestConcurrentApply_TotalOrder exercises the universal property that
// concurrent applies to a single log manager observe a total order, and the
// post-state's lastIndex equals max(pre.lastIndex, snapshot.lastIndex).
func TestConcurrentApply_TotalOrder(t *testing.T) {
	m := newTestManager(t)

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(idx int64) {
			defer wg.Done()
			m.SetLastIndexTerm(idx, 1)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(50), m.LastIndex())
}

func TestTakeSnapshot_FoldsCommittedAppends(t *testing.T) {
	m := newTestManager(t)

	table := fakeTable{owned: map[int64][]vtypes.Slot{7: {1, 2}}}
	require.NoError(t, m.Append(1, []vtypes.LogEntry{
		{Index: 1, Term: 1, Data: []byte("a")},
		{Index: 2, Term: 1, Data: []byte("b")},
	}))

	snap := m.TakeSnapshot(table, 7)
	require.Contains(t, snap.PerSlot, vtypes.Slot(1))
	simple, ok := snap.PerSlot[vtypes.Slot(1)].(*vtypes.SimpleSnapshot)
	require.True(t, ok)
	require.Len(t, simple.Operations, 2)
	require.Equal(t, int64(2), simple.LastIndex())

	// Slot 2 is owned but has no entries; it should not appear.
	_, hasSlot2 := snap.PerSlot[vtypes.Slot(2)]
	require.False(t, hasSlot2)
}

type fakeTable struct {
	owned map[int64][]vtypes.Slot
}

func (f fakeTable) HeaderOf(slot vtypes.Slot) (int64, bool) {
	for header, slots := range f.owned {
		for _, s := range slots {
			if s == slot {
				return header, true
			}
		}
	}
	return 0, false
}

func (f fakeTable) SlotsOwnedBy(headerID int64) []vtypes.Slot {
	return f.owned[headerID]
}
