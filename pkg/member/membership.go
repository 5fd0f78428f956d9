package member

import (
	"time"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// AddNode implements addNode: synchronous, idempotent-in-the-position-it-
// chooses insertion into the ring-sorted membership sequence. It returns
// true iff replication-factor truncation evicted the local node, signalling
// the caller must leave the group.
func (m *Member) AddNode(n vtypes.Node) bool {
	m.membership.mu.Lock()
	seq := m.membership.group.Members
	insertAt := len(seq)

	for i := 0; i < len(seq); i++ {
		prev := seq[i]
		next := seq[(i+1)%len(seq)]

		switch {
		case prev.ID < n.ID && n.ID < next.ID:
			insertAt = i + 1
		case prev.ID < n.ID && next.ID < prev.ID:
			insertAt = i + 1
		case n.ID < next.ID && next.ID < prev.ID:
			insertAt = i + 1
		default:
			continue
		}
		break
	}

	newSeq := make([]vtypes.Node, 0, len(seq)+1)
	newSeq = append(newSeq, seq[:insertAt]...)
	newSeq = append(newSeq, n)
	newSeq = append(newSeq, seq[insertAt:]...)

	droppedLocal := false
	if m.replicationFactor > 0 {
		for vtypes.ReplicationFactor(len(newSeq)) > m.replicationFactor {
			dropped := newSeq[len(newSeq)-1]
			newSeq = newSeq[:len(newSeq)-1]
			if dropped.Equal(m.local) {
				droppedLocal = true
			}
		}
	}
	m.membership.group.Members = newSeq
	m.membership.mu.Unlock()

	m.state.mu.Lock()
	m.state.term++
	m.setRoleAndMetrics(RoleElector)
	m.state.leader = nil
	m.state.lastHeartbeat = time.Time{}
	term := m.state.term
	m.state.mu.Unlock()
	vmetrics.Term.Set(float64(term))

	return droppedLocal
}
