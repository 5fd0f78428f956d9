package member

import (
	"context"
	"fmt"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// forwardToLeader is the generic leader-forwarding continuation: a follower
// that cannot answer a request locally dispatches it to the last-known
// leader and relays whatever comes back. If
// no leader is known yet, the caller gets ErrLeaderUnknown naming every
// current group member, the set the requester is expected to retry against.
func forwardToLeader(ctx context.Context, m *Member, rpcName string, call func(*vrpc.Client) (any, error)) (any, error) {
	leader, ok := m.Leader()
	if !ok {
		vmetrics.ForwardsTotal.WithLabelValues(rpcName, "leader_unknown").Inc()
		return nil, fmt.Errorf("%w: group members %v", vtypes.ErrLeaderUnknown, m.Group().Members)
	}
	if m.transport == nil {
		vmetrics.ForwardsTotal.WithLabelValues(rpcName, "leader_unknown").Inc()
		return nil, fmt.Errorf("%w: no transport configured to reach leader %s", vtypes.ErrLeaderUnknown, leader)
	}
	out, err := m.transport.Forward(ctx, leader, call)
	if err != nil {
		vmetrics.ForwardsTotal.WithLabelValues(rpcName, "error").Inc()
		return nil, err
	}
	vmetrics.ForwardsTotal.WithLabelValues(rpcName, "ok").Inc()
	return out, nil
}
