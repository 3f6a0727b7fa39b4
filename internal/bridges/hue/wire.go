package hue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

// Bridge API error types.
// See: https://developers.meethue.com/develop/hue-api/error-messages/
const (
	errTypeUnauthorizedUser    = 1
	errTypeResourceUnavailable = 3
	errTypeLinkButton          = 101
)

// Vendor limits for state writes.
const (
	maxWireSat = 254
	minWireBri = 1
	maxWireBri = 254
)

const archetypePlug = "plug"

// wireDevice is one entry of the bridge's lights map.
type wireDevice struct {
	State            *wireState  `json:"state"`
	Type             string      `json:"type"`
	Name             string      `json:"name"`
	ModelID          string      `json:"modelid"`
	ManufacturerName string      `json:"manufacturername"`
	UniqueID         string      `json:"uniqueid"`
	SWVersion        string      `json:"swversion"`
	ProductID        *string     `json:"productid"`
	Config           *wireConfig `json:"config"`
}

type wireState struct {
	On        *bool    `json:"on"`
	Bri       *float64 `json:"bri"`
	Hue       *float64 `json:"hue"`
	Sat       *float64 `json:"sat"`
	ColorMode *string  `json:"colormode"`
	Reachable *bool    `json:"reachable"`
}

type wireConfig struct {
	Archetype string `json:"archetype"`
}

func (d wireDevice) isLight() bool {
	return d.State != nil && d.State.ColorMode != nil
}

func (d wireDevice) isPlug() bool {
	return d.Config != nil && d.Config.Archetype == archetypePlug
}

func (d wireDevice) reachable() bool {
	return d.State != nil && d.State.Reachable != nil && *d.State.Reachable
}

// wireLightState is the PUT body for lights/{id}/state.
type wireLightState struct {
	On  *bool   `json:"on,omitempty"`
	Hue *uint16 `json:"hue,omitempty"`
	Sat *uint8  `json:"sat,omitempty"`
	Bri *uint8  `json:"bri,omitempty"`
}

// apiError is the error object inside a bridge response array.
type apiError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// resultItem is one element of a bridge response array. Success is kept
// raw because its shape differs per endpoint.
type resultItem struct {
	Error   *apiError       `json:"error"`
	Success json.RawMessage `json:"success"`
}

// classify maps a bridge error to the device taxonomy.
func (e *apiError) classify() error {
	switch e.Type {
	case errTypeLinkButton:
		return fmt.Errorf("%w: %s", device.ErrLinkButtonNotPressed, e.Description)
	case errTypeResourceUnavailable:
		return fmt.Errorf("%w: %s", device.ErrNotFound, e.Description)
	case errTypeUnauthorizedUser:
		return fmt.Errorf("%w: bridge rejected credentials: %s", device.ErrUpstreamUnreachable, e.Description)
	default:
		return fmt.Errorf("%w: bridge error %d: %s", device.ErrUpstreamProtocol, e.Type, e.Description)
	}
}

// firstError returns the first error in body when body is a bridge result
// array. Object responses and arrays without errors return nil.
func firstError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	var items []resultItem
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("%w: decoding result array: %v", device.ErrUpstreamProtocol, err)
	}
	for _, item := range items {
		if item.Error != nil {
			return item.Error.classify()
		}
	}
	return nil
}
