package hue

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

// ListPlugs returns every plug on the bridge. Failures are logged and
// yield an empty list.
func (c *Client) ListPlugs(ctx context.Context) []device.Plug {
	devices, ok := c.fetchDevices(ctx, "list_plugs")
	if !ok {
		return []device.Plug{}
	}

	plugs := make([]device.Plug, 0, len(devices))
	for _, key := range sortedKeys(lo.PickBy(devices, func(_ string, d wireDevice) bool { return d.isPlug() })) {
		plug, err := c.toPlug(key, devices[key])
		if err != nil {
			c.logger.Debug("skipping malformed plug", "device_id", key, "error", err)
			continue
		}
		plugs = append(plugs, plug)
	}
	return plugs
}

// GetPlug fetches one plug. It fails unless the entry has archetype
// "plug" and reports reachable=true.
func (c *Client) GetPlug(ctx context.Context, deviceID string) (device.Plug, error) {
	d, err := c.fetchDevice(ctx, "get_plug", deviceID)
	if err != nil {
		return device.Plug{}, err
	}
	if !d.isPlug() {
		return device.Plug{}, fmt.Errorf("%w: device %s is not a plug", device.ErrUpstreamProtocol, deviceID)
	}
	if !d.reachable() {
		return device.Plug{}, fmt.Errorf("%w: plug %s is not reachable", device.ErrUpstreamUnreachable, deviceID)
	}
	return c.toPlug(deviceID, d)
}

// SetPlug switches the plug. An empty command is a no-op.
func (c *Client) SetPlug(ctx context.Context, deviceID string, cmd device.PlugStateCommand) error {
	if cmd.IsEmpty() {
		return nil
	}
	if err := c.requirePaired(); err != nil {
		return err
	}
	return c.putState(ctx, "set_plug", deviceID, wireLightState{On: cmd.On})
}

func (c *Client) toPlug(key string, d wireDevice) (device.Plug, error) {
	s := d.State
	if s == nil || s.On == nil || s.Reachable == nil {
		return device.Plug{}, fmt.Errorf("%w: plug %s is missing state fields", device.ErrUpstreamProtocol, key)
	}

	return device.Plug{
		ID:           device.FormatID(ProviderName, c.bridge.ID, key),
		Name:         d.Name,
		On:           *s.On,
		Reachable:    *s.Reachable,
		Type:         d.Type,
		Model:        d.ModelID,
		Manufacturer: d.ManufacturerName,
		UniqueID:     d.UniqueID,
		SWVersion:    d.SWVersion,
		ProductID:    d.ProductID,
	}, nil
}
