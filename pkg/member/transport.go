package member

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/vortex/pkg/filepull"
	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// Transport is the one dial pool a Member keeps for every peer it talks to,
// lazily connecting and caching a *vrpc.Client per node id. It backs three
// seams at once: filepull.RemoteFileReader (per-node chunked reads),
// vscheduler.SnapshotFetcher (failover across a previous holder's group)
// and the plain request forwarding a non-leader member does against its
// known leader.
type Transport struct {
	certDir    string
	serverName string

	mu      sync.Mutex
	clients map[int64]*vrpc.Client
}

// NewTransport constructs a Transport. certDir enables mTLS dialing,
// matching vrpc.Dial's convention; an empty certDir dials plaintext, which
// is only appropriate for local development and tests.
func NewTransport(certDir, serverName string) *Transport {
	return &Transport{certDir: certDir, serverName: serverName, clients: make(map[int64]*vrpc.Client)}
}

func (t *Transport) clientFor(ctx context.Context, node vtypes.Node) (*vrpc.Client, error) {
	t.mu.Lock()
	if c, ok := t.clients[node.ID]; ok {
		t.mu.Unlock()
		return c, nil
	}
	t.mu.Unlock()

	c, err := vrpc.Dial(ctx, node.Address, t.certDir, t.serverName)
	if err != nil {
		return nil, fmt.Errorf("member: dial %s: %w", node, err)
	}

	t.mu.Lock()
	if existing, ok := t.clients[node.ID]; ok {
		t.mu.Unlock()
		_ = c.Close()
		return existing, nil
	}
	t.clients[node.ID] = c
	t.mu.Unlock()
	return c, nil
}

// Close tears down every pooled connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first error
	for id, c := range t.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(t.clients, id)
	}
	return first
}

// nodeReader adapts a Transport plus a fixed destination node into
// filepull.RemoteFileReader.
type nodeReader struct {
	t    *Transport
	node vtypes.Node
}

func (r nodeReader) ReadFile(ctx context.Context, path string, offset, length int64, groupHeader string) ([]byte, error) {
	c, err := r.t.clientFor(ctx, r.node)
	if err != nil {
		return nil, err
	}
	return c.ReadFile(ctx, path, offset, length, groupHeader)
}

// ReaderFor implements the factory filepull.Puller.ReaderFactory expects:
// one connection per source node, reused across chunks and across files.
func (t *Transport) ReaderFor(node vtypes.Node) filepull.RemoteFileReader {
	return nodeReader{t: t, node: node}
}

// FetchGroupSnapshot implements vscheduler.SnapshotFetcher: it tries each
// member of group in order, the same failover generalised from
// loadRemoteFile to the pullSnapshot RPC, and returns the first member's
// answer that succeeds.
func (t *Transport) FetchGroupSnapshot(ctx context.Context, group vtypes.PartitionGroup, slots []vtypes.Slot) (map[vtypes.Slot]vtypes.Snapshot, error) {
	wireSlots := make([]int32, len(slots))
	for i, s := range slots {
		wireSlots[i] = int32(s)
	}

	var lastErr error
	for _, node := range group.Members {
		c, err := t.clientFor(ctx, node)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := c.PullSnapshot(ctx, &vrpc.PullSnapshotRequest{Slots: wireSlots})
		if err != nil {
			lastErr = err
			continue
		}
		out := make(map[vtypes.Slot]vtypes.Snapshot, len(resp.Snapshots))
		var decodeErr error
		for slot, w := range resp.Snapshots {
			snap, err := vrpc.SnapshotFromWire(w)
			if err != nil {
				decodeErr = err
				break
			}
			out[vtypes.Slot(slot)] = snap
		}
		if decodeErr == nil {
			return out, nil
		}
		lastErr = decodeErr
	}
	return nil, fmt.Errorf("%w: %s: %v", vtypes.ErrTransferFailed, group.HeaderKey(), lastErr)
}

// Forward dispatches req against the known leader and relays its response,
// for requests a follower cannot answer itself.
func (t *Transport) Forward(ctx context.Context, leader vtypes.Node, call func(*vrpc.Client) (any, error)) (any, error) {
	c, err := t.clientFor(ctx, leader)
	if err != nil {
		return nil, err
	}
	return call(c)
}
