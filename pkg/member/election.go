package member

import (
	"context"
	"time"

	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vtypes"
)

// ProcessElection implements vrpc.Handler.ProcessElection, the
// election-gating algorithm. A candidate is admitted only if it is
// also acceptable as a metadata-group candidate: the metadata-log
// comparison runs first, and only its LOG_MISMATCH outcome short-circuits
// the whole request as META_LOG_STALE. Any other metadata outcome falls
// through to the data-log comparison, whose verdict is returned.
func (m *Member) ProcessElection(ctx context.Context, req *vrpc.ElectionRequest) (*vrpc.ElectionResponse, error) {
	candidate := vtypes.LogPosition{LastIndex: req.DataLastIndex, LastLogTerm: req.DataLastLogTerm}

	if m.meta != nil {
		localMeta := m.meta.MetaLogPosition()
		candidateMeta := vtypes.LogPosition{LastIndex: req.MetaLastIndex, LastLogTerm: req.MetaLastLogTerm}
		metaVerdict := vtypes.VerifyElector(localMeta, candidateMeta, req.Term, localMeta.Term)
		if metaVerdict == vtypes.VerdictLogMismatch {
			vmetrics.ElectionsTotal.WithLabelValues(vtypes.VerdictMetaLogStale.String()).Inc()
			return &vrpc.ElectionResponse{Verdict: int32(vtypes.VerdictMetaLogStale)}, nil
		}
	}

	localData := vtypes.LogPosition{
		Term:        m.Term(),
		LastIndex:   m.logManager.LastIndex(),
		LastLogTerm: m.logManager.LastTerm(),
	}
	verdict := vtypes.VerifyElector(localData, candidate, req.Term, localData.Term)
	vmetrics.ElectionsTotal.WithLabelValues(verdict.String()).Inc()

	if verdict == vtypes.VerdictAgree {
		m.state.mu.Lock()
		m.state.term = req.Term
		m.setRoleAndMetrics(RoleFollower)
		elector := req.Elector
		m.state.leader = &elector
		m.state.lastHeartbeat = time.Now()
		m.state.mu.Unlock()
		vmetrics.Term.Set(float64(req.Term))
	}

	return &vrpc.ElectionResponse{Verdict: int32(verdict)}, nil
}
