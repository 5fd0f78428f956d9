package member

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/stretchr/testify/require"
)

func TestHeartbeat_LeaderRefreshesLastHeartbeatEachTick(t *testing.T) {
	local := vtypes.Node{ID: 1}
	m, err := New(Config{
		Local:             local,
		InitialGroup:      vtypes.PartitionGroup{Members: []vtypes.Node{local}},
		LogManager:        newTestManager(),
		Schemas:           &fakeSchemas{},
		Storage:           &fakeStorage{},
		Directory:         &fakeDirectory{root: t.TempDir()},
		HeartbeatInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	m.state.mu.Lock()
	m.setRoleAndMetrics(RoleLeader)
	before := m.state.lastHeartbeat
	m.state.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	require.Eventually(t, func() bool {
		m.state.mu.Lock()
		defer m.state.mu.Unlock()
		return m.state.lastHeartbeat.After(before)
	}, time.Second, 5*time.Millisecond)

	m.Stop()
}

func TestHeartbeat_StopUnblocksTheLoop(t *testing.T) {
	local := vtypes.Node{ID: 1}
	m, err := New(Config{
		Local:             local,
		InitialGroup:      vtypes.PartitionGroup{Members: []vtypes.Node{local}},
		LogManager:        newTestManager(),
		Schemas:           &fakeSchemas{},
		Storage:           &fakeStorage{},
		Directory:         &fakeDirectory{root: t.TempDir()},
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly")
	}
}
