package hue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

type sceneAction struct {
	Scene string `json:"scene"`
}

// ListScenes returns the bridge's scenes, each tagged with its map key as ID.
func (c *Client) ListScenes(ctx context.Context) ([]device.Scene, error) {
	if err := c.requirePaired(); err != nil {
		return nil, err
	}

	var scenes map[string]device.Scene
	if err := c.getJSON(ctx, "list_scenes", c.deviceURL("scenes"), &scenes); err != nil {
		return nil, err
	}

	keys := lo.Keys(scenes)
	sort.Strings(keys)

	return lo.Map(keys, func(key string, _ int) device.Scene {
		s := scenes[key]
		s.ID = key
		return s
	}), nil
}

// ActivateScene recalls sceneID on groupID.
//
// The bridge answers with an array mixing success and error objects; the
// first of either decides the result. A success returns its first value
// as a string. A non-array body is returned verbatim.
func (c *Client) ActivateScene(ctx context.Context, groupID, sceneID string) (string, error) {
	if err := c.requirePaired(); err != nil {
		return "", err
	}

	data, err := c.doRequest(ctx, "activate_scene", http.MethodPut,
		c.deviceURL("groups", groupID, "action"), sceneAction{Scene: sceneID})
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		return string(data), nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return "", fmt.Errorf("%w: decoding scene response: %v", device.ErrUpstreamProtocol, err)
	}

	for _, raw := range items {
		var item map[string]json.RawMessage
		if json.Unmarshal(raw, &item) != nil {
			continue
		}
		if errRaw, ok := item["error"]; ok {
			return "", sceneError(errRaw)
		}
		if successRaw, ok := item["success"]; ok {
			return firstValue(successRaw), nil
		}
	}
	return "", fmt.Errorf("%w: scene response has no result", device.ErrUpstreamProtocol)
}

// sceneError accepts both the documented error object and a bare string.
func sceneError(raw json.RawMessage) error {
	var e apiError
	if json.Unmarshal(raw, &e) == nil && e.Description != "" {
		return e.classify()
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return fmt.Errorf("%w: %s", device.ErrUpstreamProtocol, text)
	}
	return fmt.Errorf("%w: %s", device.ErrUpstreamProtocol, string(raw))
}

// firstValue returns the first value of a success object, lowest key
// first. Strings are unquoted; other values keep their JSON form.
func firstValue(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil || len(obj) == 0 {
		return string(raw)
	}
	keys := lo.Keys(obj)
	sort.Strings(keys)

	value := obj[keys[0]]
	var text string
	if json.Unmarshal(value, &text) == nil {
		return text
	}
	return string(value)
}
