package device

import (
	"encoding/json"
	"fmt"
)

// RGB is an 8-bit colour triple. It serializes as [r, g, b].
type RGB struct {
	R, G, B uint8
}

// MarshalJSON encodes the colour as a three-element array.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.R, c.G, c.B})
}

// UnmarshalJSON decodes a three-element array.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var arr []int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("decoding rgb: %w", err)
	}
	if len(arr) != 3 {
		return fmt.Errorf("decoding rgb: want 3 channels, got %d", len(arr))
	}
	for _, v := range arr {
		if v < 0 || v > 255 {
			return fmt.Errorf("decoding rgb: channel %d out of range", v)
		}
	}
	c.R, c.G, c.B = uint8(arr[0]), uint8(arr[1]), uint8(arr[2])
	return nil
}

// Light is the canonical colour light. It is derived on every read.
type Light struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	On           bool    `json:"on"`
	Brightness   float64 `json:"brightness"`
	Color        []RGB   `json:"color"`
	Reachable    bool    `json:"reachable"`
	Type         string  `json:"type"`
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer"`
	UniqueID     string  `json:"uniqueid"`
	SWVersion    string  `json:"swversion"`
	ProductID    *string `json:"productid,omitempty"`
}

// Plug is the canonical smart plug.
type Plug struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	On           bool    `json:"on"`
	Reachable    bool    `json:"reachable"`
	Type         string  `json:"type"`
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer"`
	UniqueID     string  `json:"uniqueid"`
	SWVersion    string  `json:"swversion"`
	ProductID    *string `json:"productid,omitempty"`
}

// LightStateCommand is a write intent. Nil fields are left unchanged.
type LightStateCommand struct {
	On         *bool  `json:"on,omitempty"`
	Brightness *uint8 `json:"brightness,omitempty"`
	Color      []RGB  `json:"color,omitempty"`
}

// UnmarshalJSON also accepts the legacy key "brigthness" sent by older clients.
func (c *LightStateCommand) UnmarshalJSON(data []byte) error {
	type plain LightStateCommand
	var aux struct {
		plain
		Legacy *uint8 `json:"brigthness"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = LightStateCommand(aux.plain)
	if c.Brightness == nil {
		c.Brightness = aux.Legacy
	}
	return nil
}

// IsEmpty reports whether the command changes nothing.
func (c LightStateCommand) IsEmpty() bool {
	return c.On == nil && c.Brightness == nil && len(c.Color) == 0
}

// PlugStateCommand is a write intent for a plug.
type PlugStateCommand struct {
	On *bool `json:"on,omitempty"`
}

// IsEmpty reports whether the command changes nothing.
func (c PlugStateCommand) IsEmpty() bool {
	return c.On == nil
}

// Scene is a bridge-stored preset of light states.
type Scene struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Group       string        `json:"group,omitempty"`
	Lights      []string      `json:"lights"`
	Owner       string        `json:"owner"`
	Recycle     bool          `json:"recycle"`
	Locked      bool          `json:"locked"`
	AppData     *SceneAppData `json:"appdata,omitempty"`
	Picture     string        `json:"picture"`
	LastUpdated string        `json:"lastupdated"`
	Version     int           `json:"version"`
}

// SceneAppData is opaque data attached to a scene by the app that created it.
type SceneAppData struct {
	Version int    `json:"version"`
	Data    string `json:"data"`
}
