package hue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

type pairRequest struct {
	DeviceType string `json:"devicetype"`
}

type pairSuccess struct {
	Username string `json:"username"`
}

// Pair asks the bridge for a username. Until the bridge's link button is
// pressed it fails with device.ErrLinkButtonNotPressed.
func (c *Client) Pair(ctx context.Context) (string, error) {
	target := (&url.URL{Scheme: "http", Host: c.bridge.Address, Path: "/api"}).String()

	data, err := c.doRequest(ctx, "pair", http.MethodPost, target, pairRequest{DeviceType: c.provider.appID})
	if err != nil {
		return "", err
	}

	var items []resultItem
	if err := json.Unmarshal(data, &items); err != nil {
		return "", fmt.Errorf("%w: decoding pairing response: %v", device.ErrUpstreamProtocol, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: empty pairing response", device.ErrUpstreamProtocol)
	}

	first := items[0]
	if first.Error != nil {
		return "", first.Error.classify()
	}

	var success pairSuccess
	if len(first.Success) == 0 || json.Unmarshal(first.Success, &success) != nil || success.Username == "" {
		return "", fmt.Errorf("%w: pairing response has no username", device.ErrUpstreamProtocol)
	}
	return success.Username, nil
}
