package vtypes

import "github.com/hashicorp/raft"

// LogEntry is the opaque, ordered unit of replicated state. Rather than
// invent a parallel (term, index, payload) struct, the core reuses
// hashicorp/raft's *raft.Log verbatim: Index and Term already carry the
// monotonic position a partition group's log needs, Data carries the opaque
// operation bytes, and the type is recognized wire-compatible baggage when a
// SimpleSnapshot's Operations slice crosses the custom gRPC codec in
// pkg/vrpc.
type LogEntry = *raft.Log

// LogPosition is a (term, index) pair with a separate "last log term" used
// by the election freshness comparison. lastTerm is the term the entry at
// lastIndex was originally written in, which can differ from the current
// term after an election.
type LogPosition struct {
	Term        int64
	LastIndex   int64
	LastLogTerm int64
}

// Verdict is the result of a freshness comparison or election request.
type Verdict int

const (
	// VerdictAgree means the candidate's log is at least as fresh as local
	// and its term is strictly greater; the candidate is admitted.
	VerdictAgree Verdict = iota
	// VerdictLogMismatch means the candidate's (lastLogTerm, lastIndex) is
	// lexicographically behind local, independent of term.
	VerdictLogMismatch
	// VerdictTermStale means the candidate's term is not greater than local
	// term.
	VerdictTermStale
	// VerdictMetaLogStale is returned only by the election-gating wrapper,
	// when its preliminary metadata-log comparison itself reports
	// VerdictLogMismatch; it is never returned by VerifyElector directly.
	VerdictMetaLogStale
)

func (v Verdict) String() string {
	switch v {
	case VerdictAgree:
		return "AGREE"
	case VerdictLogMismatch:
		return "LOG_MISMATCH"
	case VerdictTermStale:
		return "TERM_STALE"
	case VerdictMetaLogStale:
		return "META_LOG_STALE"
	default:
		return "UNKNOWN"
	}
}

// VerifyElector runs the election freshness comparison: it rejects a
// candidate whose (lastLogTerm, lastIndex) is lexicographically behind
// local first, regardless of term, then rejects one whose term is not
// strictly greater than local. Log freshness is checked before term
// staleness so that a candidate that is behind on its log is always
// reported as LOG_MISMATCH even when its term is also stale — callers
// that gate an election on a metadata-log comparison rely on this to
// short-circuit as META_LOG_STALE in that combined case.
func VerifyElector(local, candidate LogPosition, candidateTerm, localTerm int64) Verdict {
	if candidate.LastLogTerm < local.LastLogTerm {
		return VerdictLogMismatch
	}
	if candidate.LastLogTerm == local.LastLogTerm && candidate.LastIndex < local.LastIndex {
		return VerdictLogMismatch
	}
	if candidateTerm <= localTerm {
		return VerdictTermStale
	}
	return VerdictAgree
}
