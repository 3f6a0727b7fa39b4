package aggregate

import "errors"

// ErrInvalidBridge is returned when a bridge registration is missing its host.
var ErrInvalidBridge = errors.New("aggregate: invalid bridge")
