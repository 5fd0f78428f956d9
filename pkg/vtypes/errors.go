package vtypes

import "errors"

// Sentinel errors surfaced across the RPC surface. They are compared with
// errors.Is by pkg/vrpc when mapping to gRPC status codes, and wrapped with
// %w everywhere else.
var (
	// ErrLeaderUnknown is returned verbatim to callers; it is never
	// recovered locally. The caller is expected to retry against another
	// member.
	ErrLeaderUnknown = errors.New("data group: leader unknown")

	// ErrReaderNotFound means fetchSingleSeries was asked for a reader id
	// the Query Session Registry has no record of.
	ErrReaderNotFound = errors.New("data group: reader not found")

	// ErrMetadataError wraps a failure surfaced by a metadata lookup (e.g.
	// getAllPaths against the local catalog).
	ErrMetadataError = errors.New("data group: metadata error")

	// ErrStorageEngine wraps a failure returned by the injected storage
	// engine capability.
	ErrStorageEngine = errors.New("data group: storage engine error")

	// ErrLogMismatch and ErrMetaLogStale are the error-shaped forms of the
	// corresponding Verdict. No function in this module returns them:
	// election outcomes travel as Verdict values in ElectionResponse.
	ErrLogMismatch  = errors.New("data group: log mismatch")
	ErrMetaLogStale = errors.New("data group: metadata log stale")

	// ErrSnapshotDeserialise marks a failure to decode an incoming snapshot
	// on sendSnapshot; local state is left unchanged.
	ErrSnapshotDeserialise = errors.New("data group: snapshot deserialise failed")

	// ErrTransferFailed marks the exhaustion of every member of a source
	// group during loadRemoteFile; the file is left un-pulled.
	ErrTransferFailed = errors.New("data group: remote file transfer failed")
)
