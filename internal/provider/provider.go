// Package provider defines the capability set every device ecosystem
// implements, and the registry that resolves the provider segment of a
// composite device id.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/device"
)

// Client speaks one provider's protocol to one bridge.
//
// ListLights and ListPlugs never fail: a broken bridge yields an empty
// list so that multi-bridge listings keep the healthy bridges' devices.
// Every other method surfaces errors from the device error taxonomy.
type Client interface {
	ListLights(ctx context.Context) []device.Light
	ListPlugs(ctx context.Context) []device.Plug

	GetLight(ctx context.Context, deviceID string) (device.Light, error)
	GetPlug(ctx context.Context, deviceID string) (device.Plug, error)

	SetLight(ctx context.Context, deviceID string, cmd device.LightStateCommand) error
	SetPlug(ctx context.Context, deviceID string, cmd device.PlugStateCommand) error

	// Pair runs the link-button handshake and returns the issued username.
	Pair(ctx context.Context) (string, error)

	ListScenes(ctx context.Context) ([]device.Scene, error)
	ActivateScene(ctx context.Context, groupID, sceneID string) (string, error)
}

// Provider binds bridge records to protocol clients.
type Provider interface {
	// Name is the provider segment used in composite ids.
	Name() string

	// Bind returns a client for b. Binding is cheap and performs no I/O.
	Bind(b bridge.Bridge) Client
}

// Registry maps provider names to providers. It is built once at startup
// and read-only afterwards, so it needs no locking.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry. A later provider with a duplicate name
// replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Resolve returns the provider registered under name, or an error
// wrapping device.ErrUnknownProvider.
func (r *Registry) Resolve(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", device.ErrUnknownProvider, name)
	}
	return p, nil
}

// Bind resolves the bridge's provider and binds a client to it.
func (r *Registry) Bind(b bridge.Bridge) (Client, error) {
	p, err := r.Resolve(b.Provider)
	if err != nil {
		return nil, err
	}
	return p.Bind(b), nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
