package fl

import (
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
)

var (
	ErrInvalidInstruction = fmt.Errorf("%w: invalid instruction", pkgerrors.ErrTransport)
	ErrDecode             = fmt.Errorf("%w: failed to decode frame", pkgerrors.ErrTransport)
	errEncode             = errors.New("failed to encode frame")
)
