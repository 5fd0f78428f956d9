package vtypes

import (
	"strings"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// RemoteFileRef names an immutable data file owned by another member of the
// cluster. Naming contract: Path's segments end in
// ".../{sequence|unsequence}/{storageGroup}/{fileName}" — that suffix is the
// only positional information an implementer may rely on when translating a
// remote path to a local staging path.
type RemoteFileRef struct {
	Source             Node                   `json:"source"`
	Path               string                 `json:"path"`
	MD5                string                 `json:"md5"`
	HasModifications   bool                   `json:"hasModifications"`
	ModificationsPath  string                 `json:"modificationsPath,omitempty"`
	Local              bool                   `json:"local"`
	PulledAt           *timestamppb.Timestamp `json:"pulledAt,omitempty"`
}

// StorageGroupAndName splits Path per the naming contract, returning the
// storage group and file name segments. It returns false if Path does not
// have at least a "{sequence|unsequence}/{storageGroup}/{fileName}" suffix.
func (r RemoteFileRef) StorageGroupAndName() (storageGroup, fileName string, ok bool) {
	parts := strings.Split(strings.TrimRight(r.Path, "/"), "/")
	if len(parts) < 3 {
		return "", "", false
	}
	tail := parts[len(parts)-3:]
	if tail[0] != "sequence" && tail[0] != "unsequence" {
		return "", "", false
	}
	return tail[1], tail[2], true
}
