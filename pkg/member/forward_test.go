package member

import (
	"context"
	"testing"

	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/stretchr/testify/require"
)

func TestForwardToLeader_NoLeaderListsGroupMembers(t *testing.T) {
	local := vtypes.Node{ID: 1}
	peer := vtypes.Node{ID: 2}
	m, err := New(Config{
		Local:        local,
		InitialGroup: vtypes.PartitionGroup{Members: []vtypes.Node{local, peer}},
		LogManager:   newTestManager(),
		Schemas:      &fakeSchemas{},
		Storage:      &fakeStorage{},
		Directory:    &fakeDirectory{root: t.TempDir()},
	})
	require.NoError(t, err)

	_, err = forwardToLeader(context.Background(), m, "Test", func(c *vrpc.Client) (any, error) {
		t.Fatal("call must not run when no leader is known")
		return nil, nil
	})
	require.ErrorIs(t, err, vtypes.ErrLeaderUnknown)
	require.ErrorContains(t, err, peer.String())
}

func TestForwardToLeader_NoTransportConfiguredFails(t *testing.T) {
	m := newTestMember(t, nil)
	leader := vtypes.Node{ID: 2}
	m.state.mu.Lock()
	m.state.leader = &leader
	m.state.mu.Unlock()

	_, err := forwardToLeader(context.Background(), m, "Test", func(c *vrpc.Client) (any, error) {
		t.Fatal("call must not run without a transport")
		return nil, nil
	})
	require.ErrorIs(t, err, vtypes.ErrLeaderUnknown)
}
