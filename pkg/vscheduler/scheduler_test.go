package vscheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []vtypes.PartitionGroup
	result  map[vtypes.Slot]vtypes.Snapshot
	err     error
	blocked chan struct{}
}

func (f *fakeFetcher) FetchGroupSnapshot(ctx context.Context, group vtypes.PartitionGroup, slots []vtypes.Slot) (map[vtypes.Slot]vtypes.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, group)
	f.mu.Unlock()

	if f.blocked != nil {
		select {
		case <-f.blocked:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[vtypes.Slot]vtypes.Snapshot, len(slots))
	for _, s := range slots {
		out[s] = f.result[s]
	}
	return out, nil
}

type fakeLogManager struct {
	mu        sync.Mutex
	installed map[vtypes.Slot]vtypes.Snapshot
}

func newFakeLogManager() *fakeLogManager {
	return &fakeLogManager{installed: make(map[vtypes.Slot]vtypes.Snapshot)}
}

func (m *fakeLogManager) InstallSnapshot(slot vtypes.Slot, snap vtypes.Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed[slot] = snap
	return true
}

func (m *fakeLogManager) get(slot vtypes.Slot) vtypes.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installed[slot]
}

func TestPullSnapshots_GroupsByHolderAndResolves(t *testing.T) {
	groupA := vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 1}}}
	groupB := vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 2}}}

	want := &vtypes.SimpleSnapshot{Index: 5, Term: 1}
	fetcher := &fakeFetcher{result: map[vtypes.Slot]vtypes.Snapshot{10: want, 11: want, 20: want}}
	logMgr := newFakeLogManager()

	s := New(fetcher, logMgr, zerolog.Nop())
	s.PullSnapshots(map[vtypes.Slot]vtypes.PartitionGroup{
		10: groupA,
		11: groupA,
		20: groupB,
	})

	for _, slot := range []vtypes.Slot{10, 11, 20} {
		placeholder := logMgr.get(slot)
		require.NotNil(t, placeholder)
		remote, ok := placeholder.(*vtypes.RemoteSnapshot)
		require.True(t, ok)
		resolved, err := remote.Resolve()
		require.NoError(t, err)
		require.Equal(t, want, resolved)
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.Len(t, fetcher.calls, 2, "one fetch per distinct holder group")

	s.Stop()
}

func TestPullSnapshots_FetchErrorPropagatesToPlaceholder(t *testing.T) {
	group := vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 9}}}
	fetcher := &fakeFetcher{err: context.DeadlineExceeded}
	logMgr := newFakeLogManager()

	s := New(fetcher, logMgr, zerolog.Nop())
	s.PullSnapshots(map[vtypes.Slot]vtypes.PartitionGroup{3: group})

	placeholder := logMgr.get(3).(*vtypes.RemoteSnapshot)
	_, err := placeholder.Resolve()
	require.Error(t, err)

	s.Stop()
}

func TestStop_UnblocksInFlightTasksAndLeavesPlaceholderErrored(t *testing.T) {
	group := vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 1}}}
	fetcher := &fakeFetcher{blocked: make(chan struct{})}
	logMgr := newFakeLogManager()

	s := New(fetcher, logMgr, zerolog.Nop())
	s.PullSnapshots(map[vtypes.Slot]vtypes.PartitionGroup{1: group})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancellation")
	}

	placeholder := logMgr.get(1).(*vtypes.RemoteSnapshot)
	_, err := placeholder.Resolve()
	require.Error(t, err)
}
