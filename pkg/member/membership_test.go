package member

import (
	"testing"

	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/stretchr/testify/require"
)

func TestAddNode_InsertsBetweenNeighboursInRingOrder(t *testing.T) {
	m := newTestMember(t, nil)
	m.membership.group = vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 10}, {ID: 30}}}

	evicted := m.AddNode(vtypes.Node{ID: 20})
	require.False(t, evicted)

	ids := idsOf(m.Group())
	require.Equal(t, []int64{10, 20, 30}, ids)
}

func TestAddNode_WrapsAroundTheRing(t *testing.T) {
	m := newTestMember(t, nil)
	// Ring holds 30 then 10 (wraps): inserting 40 belongs after 30, before
	// the wrap back to 10.
	m.membership.group = vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 10}, {ID: 30}}}

	evicted := m.AddNode(vtypes.Node{ID: 40})
	require.False(t, evicted)

	ids := idsOf(m.Group())
	require.Equal(t, []int64{10, 30, 40}, ids)
}

func TestAddNode_TruncatesToReplicationFactorAndReportsLocalEviction(t *testing.T) {
	local := vtypes.Node{ID: 50}
	m, err := New(Config{
		Local:             local,
		InitialGroup:      vtypes.PartitionGroup{Members: []vtypes.Node{{ID: 10}, {ID: 20}, local}},
		ReplicationFactor: 3,
		LogManager:        newTestManager(),
		Schemas:           &fakeSchemas{},
		Storage:           &fakeStorage{},
		Directory:         &fakeDirectory{root: t.TempDir()},
	})
	require.NoError(t, err)

	// Inserting 15 pushes the group past the replication factor; the last
	// element (local, id 50) is truncated.
	evicted := m.AddNode(vtypes.Node{ID: 15})
	require.True(t, evicted)

	ids := idsOf(m.Group())
	require.Len(t, ids, 3)
	require.NotContains(t, ids, int64(50))
}

func TestAddNode_BumpsTermAndResetsRoleAndLeader(t *testing.T) {
	m := newTestMember(t, nil)
	m.state.mu.Lock()
	m.state.term = 4
	m.setRoleAndMetrics(RoleFollower)
	leader := vtypes.Node{ID: 99}
	m.state.leader = &leader
	m.state.mu.Unlock()

	m.AddNode(vtypes.Node{ID: 2})

	require.Equal(t, int64(5), m.Term())
	require.Equal(t, RoleElector, m.Role())
	_, ok := m.Leader()
	require.False(t, ok)
}

func idsOf(g vtypes.PartitionGroup) []int64 {
	ids := make([]int64, len(g.Members))
	for i, n := range g.Members {
		ids[i] = n.ID
	}
	return ids
}
