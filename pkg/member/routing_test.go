package member

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/require"
)

func TestPullSnapshot_AsLeaderFiltersToRequestedAndHeldSlots(t *testing.T) {
	local := vtypes.Node{ID: 1}
	table := &fakeTable{owner: map[vtypes.Slot]int64{0: 1, 1: 1, 2: 99}}
	meta := &fakeMeta{table: table}

	m, err := New(Config{
		Local:        local,
		InitialGroup: vtypes.PartitionGroup{Members: []vtypes.Node{local}},
		LogManager:   newTestManager(),
		Meta:         meta,
		Schemas:      &fakeSchemas{},
		Storage:      &fakeStorage{},
		Directory:    &fakeDirectory{root: t.TempDir()},
	})
	require.NoError(t, err)
	m.state.mu.Lock()
	m.setRoleAndMetrics(RoleLeader)
	m.state.mu.Unlock()
	require.NoError(t, m.logManager.Append(0, []vtypes.LogEntry{&raft.Log{Index: 1, Term: 1}}))

	resp, err := m.PullSnapshot(context.Background(), &vrpc.PullSnapshotRequest{Slots: []int32{0, 2}})
	require.NoError(t, err)
	// Slot 2 is owned by a different header, so only slot 0 comes back even
	// though both were requested.
	require.Contains(t, resp.Snapshots, int32(0))
	require.NotContains(t, resp.Snapshots, int32(2))
	require.NotContains(t, resp.Snapshots, int32(1), "slot 1 was held locally but never requested")
}

func TestPullSnapshot_AsFollowerWithNoKnownLeaderFails(t *testing.T) {
	m := newTestMember(t, nil)
	_, err := m.PullSnapshot(context.Background(), &vrpc.PullSnapshotRequest{Slots: []int32{0}})
	require.ErrorIs(t, err, vtypes.ErrLeaderUnknown)
}

func TestSendSnapshot_AppliesDeserialisedSnapshot(t *testing.T) {
	m := newTestMember(t, nil)

	wire, err := vrpc.SnapshotToWire(&vtypes.SimpleSnapshot{Index: 1, Term: 1})
	require.NoError(t, err)

	resp, err := m.SendSnapshot(context.Background(), &vrpc.SendSnapshotRequest{Slot: 3, Snapshot: wire})
	require.NoError(t, err)
	require.True(t, resp.OK)

	snap, ok := m.logManager.GetSnapshot(3)
	require.True(t, ok)
	require.Equal(t, int64(1), snap.LastIndex())
}

func TestSendSnapshot_DeserialiseFailureReturnsError(t *testing.T) {
	m := newTestMember(t, nil)
	_, err := m.SendSnapshot(context.Background(), &vrpc.SendSnapshotRequest{Slot: 0, Snapshot: &vrpc.SnapshotWire{Kind: 99}})
	require.Error(t, err)
}

func TestReadFileChunk_ServesRequestedRangeWithOffset(t *testing.T) {
	m := newTestMember(t, nil)
	m.files = &fakeFileReaderManager{files: map[string][]byte{"/data/f": []byte("0123456789")}}

	resp, err := m.ReadFileChunk(context.Background(), &vrpc.ReadFileChunkRequest{Path: "/data/f", Offset: 3, Length: 4})
	require.NoError(t, err)
	require.Equal(t, []byte("3456"), resp.Data)
}

func TestReadFileChunk_ShortFinalChunkAtEOF(t *testing.T) {
	m := newTestMember(t, nil)
	m.files = &fakeFileReaderManager{files: map[string][]byte{"/data/f": []byte("abc")}}

	resp, err := m.ReadFileChunk(context.Background(), &vrpc.ReadFileChunkRequest{Path: "/data/f", Offset: 0, Length: 100})
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), resp.Data)
}

func TestReadFileChunk_UnknownFileErrors(t *testing.T) {
	m := newTestMember(t, nil)
	m.files = &fakeFileReaderManager{files: map[string][]byte{}}

	_, err := m.ReadFileChunk(context.Background(), &vrpc.ReadFileChunkRequest{Path: "/missing", Offset: 0, Length: 1})
	require.Error(t, err)
	require.False(t, errors.Is(err, vtypes.ErrLeaderUnknown))
}
