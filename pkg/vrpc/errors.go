package vrpc

import (
	"errors"

	"github.com/cuemby/vortex/pkg/vtypes"
)

func isLeaderUnknown(err error) bool {
	return errors.Is(err, vtypes.ErrLeaderUnknown)
}

func isReaderNotFound(err error) bool {
	return errors.Is(err, vtypes.ErrReaderNotFound)
}
