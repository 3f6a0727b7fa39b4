package device

import (
	"fmt"
	"strings"
)

// IDSeparator joins the segments of a composite id.
const IDSeparator = "-"

// CompositeID addresses one device on one bridge of one provider.
type CompositeID struct {
	Provider string
	BridgeID string
	DeviceID string
}

// FormatID joins the three segments into a composite id string.
func FormatID(provider, bridgeID, deviceID string) string {
	return provider + IDSeparator + bridgeID + IDSeparator + deviceID
}

// String returns the serialized form of id.
func (id CompositeID) String() string {
	return FormatID(id.Provider, id.BridgeID, id.DeviceID)
}

// ParseID splits a composite id. It fails with ErrUnknownDevice unless
// the id has exactly three non-empty segments.
func ParseID(s string) (CompositeID, error) {
	parts := strings.Split(s, IDSeparator)
	if len(parts) != 3 {
		return CompositeID{}, fmt.Errorf("%w: %q", ErrUnknownDevice, s)
	}
	for _, p := range parts {
		if p == "" {
			return CompositeID{}, fmt.Errorf("%w: %q", ErrUnknownDevice, s)
		}
	}
	return CompositeID{Provider: parts[0], BridgeID: parts[1], DeviceID: parts[2]}, nil
}
