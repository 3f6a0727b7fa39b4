package aggregate

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/device"
	"github.com/nerrad567/lumenhub-core/internal/events"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/lumenhub-core/internal/provider"
)

// maxConcurrentBridges bounds the per-listing fan-out.
const maxConcurrentBridges = 8

// Publisher receives state-change events. *events.Bus implements it.
type Publisher interface {
	Publish(ev events.Event) int
}

// Service is the aggregation layer over a user's bridges.
type Service struct {
	bridges   bridge.Repository
	providers *provider.Registry
	bus       Publisher
	logger    *logging.Logger
}

// New creates a Service.
//
// Parameters:
//   - bridges: Per-user bridge store
//   - providers: Resolves the provider segment of composite ids
//   - bus: Receives an event after every successful write
//   - logger: Structured logger
func New(bridges bridge.Repository, providers *provider.Registry, bus Publisher, logger *logging.Logger) *Service {
	return &Service{
		bridges:   bridges,
		providers: providers,
		bus:       bus,
		logger:    logger.With("component", "aggregate"),
	}
}

// ListAllLights returns the lights of every bridge userID owns.
// Only the bridge lookup itself can fail.
func (s *Service) ListAllLights(ctx context.Context, userID string) ([]device.Light, error) {
	return fanOut(ctx, s, userID, func(ctx context.Context, c provider.Client) []device.Light {
		return c.ListLights(ctx)
	})
}

// ListAllPlugs returns the plugs of every bridge userID owns.
func (s *Service) ListAllPlugs(ctx context.Context, userID string) ([]device.Plug, error) {
	return fanOut(ctx, s, userID, func(ctx context.Context, c provider.Client) []device.Plug {
		return c.ListPlugs(ctx)
	})
}

// fanOut lists every bridge concurrently into indexed slots so the
// concatenation keeps the store's bridge order.
func fanOut[T any](ctx context.Context, s *Service, userID string, list func(context.Context, provider.Client) []T) ([]T, error) {
	bridges, err := s.bridges.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bridges: %w", err)
	}

	results := make([][]T, len(bridges))

	var g errgroup.Group
	g.SetLimit(maxConcurrentBridges)
	for i, b := range bridges {
		g.Go(func() error {
			client, err := s.providers.Bind(b)
			if err != nil {
				s.logger.Warn("skipping bridge with unknown provider",
					"bridge_id", b.ID, "provider", b.Provider, "error", err)
				return nil
			}
			results[i] = list(ctx, client)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Per-bridge failures are absorbed above

	return lo.Flatten(results), nil
}

// GetLight reads one light of userID's.
func (s *Service) GetLight(ctx context.Context, userID, id string) (device.Light, error) {
	client, cid, err := s.resolve(ctx, userID, id)
	if err != nil {
		return device.Light{}, err
	}
	return client.GetLight(ctx, cid.DeviceID)
}

// GetPlug reads one plug of userID's.
func (s *Service) GetPlug(ctx context.Context, userID, id string) (device.Plug, error) {
	client, cid, err := s.resolve(ctx, userID, id)
	if err != nil {
		return device.Plug{}, err
	}
	return client.GetPlug(ctx, cid.DeviceID)
}

// SetLightState writes cmd and then publishes the re-read state.
func (s *Service) SetLightState(ctx context.Context, userID, id string, cmd device.LightStateCommand) error {
	client, cid, err := s.resolve(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := client.SetLight(ctx, cid.DeviceID, cmd); err != nil {
		return err
	}

	light, err := client.GetLight(ctx, cid.DeviceID)
	if err != nil {
		s.logger.Debug("re-read after write failed, no event sent", "device_id", id, "error", err)
		return nil
	}
	s.bus.Publish(events.LightUpdate(light, userID))
	return nil
}

// SetPlugState writes cmd and then publishes the re-read state.
func (s *Service) SetPlugState(ctx context.Context, userID, id string, cmd device.PlugStateCommand) error {
	client, cid, err := s.resolve(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := client.SetPlug(ctx, cid.DeviceID, cmd); err != nil {
		return err
	}

	plug, err := client.GetPlug(ctx, cid.DeviceID)
	if err != nil {
		s.logger.Debug("re-read after write failed, no event sent", "device_id", id, "error", err)
		return nil
	}
	s.bus.Publish(events.PlugUpdate(plug, userID))
	return nil
}

// resolve parses id, loads the bridge (which must belong to userID) and
// binds the provider client.
func (s *Service) resolve(ctx context.Context, userID, id string) (provider.Client, device.CompositeID, error) {
	cid, err := device.ParseID(id)
	if err != nil {
		return nil, device.CompositeID{}, err
	}

	b, err := s.bridges.Get(ctx, userID, cid.BridgeID)
	if err != nil {
		return nil, cid, err
	}

	p, err := s.providers.Resolve(cid.Provider)
	if err != nil {
		return nil, cid, err
	}
	if b.Provider != p.Name() {
		return nil, cid, fmt.Errorf("%w: bridge %s is not a %s bridge", device.ErrNotFound, b.ID, p.Name())
	}
	return p.Bind(*b), cid, nil
}
