package hue

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/nerrad567/lumenhub-core/internal/color"
	"github.com/nerrad567/lumenhub-core/internal/device"
)

// ListLights returns every colour light on the bridge. Failures are
// logged and yield an empty list.
func (c *Client) ListLights(ctx context.Context) []device.Light {
	devices, ok := c.fetchDevices(ctx, "list_lights")
	if !ok {
		return []device.Light{}
	}

	lights := make([]device.Light, 0, len(devices))
	for _, key := range sortedKeys(lo.PickBy(devices, func(_ string, d wireDevice) bool { return d.isLight() })) {
		light, err := c.toLight(key, devices[key])
		if err != nil {
			c.logger.Debug("skipping malformed light", "device_id", key, "error", err)
			continue
		}
		lights = append(lights, light)
	}
	return lights
}

// GetLight fetches one light. It fails unless the entry is a colour
// light that reports reachable=true.
func (c *Client) GetLight(ctx context.Context, deviceID string) (device.Light, error) {
	d, err := c.fetchDevice(ctx, "get_light", deviceID)
	if err != nil {
		return device.Light{}, err
	}
	if !d.isLight() {
		return device.Light{}, fmt.Errorf("%w: device %s is not a colour light", device.ErrUpstreamProtocol, deviceID)
	}
	if !d.reachable() {
		return device.Light{}, fmt.Errorf("%w: light %s is not reachable", device.ErrUpstreamUnreachable, deviceID)
	}
	return c.toLight(deviceID, d)
}

// SetLight writes the fields present in cmd. An empty command is a no-op.
//
// Colour goes RGB -> HSV -> bridge HSB using the first entry of cmd.Color.
// An explicit brightness overrides the colour-derived bri.
func (c *Client) SetLight(ctx context.Context, deviceID string, cmd device.LightStateCommand) error {
	if cmd.IsEmpty() {
		return nil
	}
	if err := c.requirePaired(); err != nil {
		return err
	}

	body := wireLightState{On: cmd.On}

	if len(cmd.Color) > 0 {
		rgb := cmd.Color[0]
		hsb := color.HSVToHSB(color.RGBToHSV(rgb.R, rgb.G, rgb.B))
		hue := uint16(hsb.Hue)
		sat := clampByte(hsb.Sat, 0, maxWireSat)
		bri := clampByte(hsb.Bri, minWireBri, maxWireBri)
		body.Hue, body.Sat, body.Bri = &hue, &sat, &bri
	}
	if cmd.Brightness != nil {
		bri := clampByte(float64(*cmd.Brightness), minWireBri, maxWireBri)
		body.Bri = &bri
	}

	return c.putState(ctx, "set_light", deviceID, body)
}

// toLight converts a lights-map entry. Required state fields must be present.
func (c *Client) toLight(key string, d wireDevice) (device.Light, error) {
	s := d.State
	if s == nil || s.On == nil || s.Bri == nil || s.Hue == nil || s.Sat == nil || s.Reachable == nil {
		return device.Light{}, fmt.Errorf("%w: light %s is missing state fields", device.ErrUpstreamProtocol, key)
	}

	r, g, b := color.HSVToRGB(color.HSBToHSV(color.HSB{Hue: *s.Hue, Sat: *s.Sat, Bri: *s.Bri}))

	return device.Light{
		ID:           device.FormatID(ProviderName, c.bridge.ID, key),
		Name:         d.Name,
		On:           *s.On,
		Brightness:   *s.Bri / 255,
		Color:        []device.RGB{{R: r, G: g, B: b}},
		Reachable:    *s.Reachable,
		Type:         d.Type,
		Model:        d.ModelID,
		Manufacturer: d.ManufacturerName,
		UniqueID:     d.UniqueID,
		SWVersion:    d.SWVersion,
		ProductID:    d.ProductID,
	}, nil
}

// sortedKeys orders bridge map keys numerically where possible so
// listings are stable between calls.
func sortedKeys(m map[string]wireDevice) []string {
	keys := lo.Keys(m)
	slices.SortFunc(keys, func(x, y string) int {
		a, errA := strconv.Atoi(x)
		b, errB := strconv.Atoi(y)
		if errA == nil && errB == nil {
			return cmp.Compare(a, b)
		}
		return strings.Compare(x, y)
	})
	return keys
}

func clampByte(v, minV, maxV float64) uint8 {
	switch {
	case v < minV:
		return uint8(minV)
	case v > maxV:
		return uint8(maxV)
	default:
		return uint8(v)
	}
}
