package bridge

import (
	"fmt"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

var (
	// ErrBridgeNotFound is returned when the user has no bridge with the given id.
	ErrBridgeNotFound = fmt.Errorf("bridge: %w", device.ErrNotFound)

	// ErrBridgeExists is returned when the user already registered the address.
	ErrBridgeExists = fmt.Errorf("bridge: already exists: %w", device.ErrConflict)
)
