package device

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the service.
//
// Check with errors.Is; providers wrap these with context:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // unknown bridge, device or provider
//	}
var (
	// ErrUnauthorized is returned when the caller identity is missing or invalid.
	ErrUnauthorized = errors.New("device: unauthorised")

	// ErrNotFound is returned for an unknown bridge or device, or a bridge
	// owned by a different user.
	ErrNotFound = errors.New("device: not found")

	// ErrUnknownDevice is returned when a composite id does not parse.
	ErrUnknownDevice = fmt.Errorf("%w: unknown device", ErrNotFound)

	// ErrUnknownProvider is returned when a composite id names no registered provider.
	ErrUnknownProvider = fmt.Errorf("%w: unknown provider", ErrNotFound)

	// ErrConflict is returned when a bridge address is already registered for the user.
	ErrConflict = errors.New("device: conflict")

	// ErrUpstreamUnreachable is returned on transport failure, an unpaired
	// bridge, or a device reporting reachable=false.
	ErrUpstreamUnreachable = errors.New("device: upstream unreachable")

	// ErrUpstreamProtocol is returned when a bridge response has an unexpected shape.
	ErrUpstreamProtocol = errors.New("device: upstream protocol error")

	// ErrLinkButtonNotPressed is returned by pairing until the bridge's
	// link button has been pressed. Callers may retry.
	ErrLinkButtonNotPressed = errors.New("device: link button not pressed")
)
