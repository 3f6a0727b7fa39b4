package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/device"
	"github.com/nerrad567/lumenhub-core/internal/provider"
)

// AddBridge registers a Hue bridge at host for userID. username may be
// empty and filled in later by PairBridge.
func (s *Service) AddBridge(ctx context.Context, userID, host, username string) (*bridge.Bridge, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBridge)
	}

	b, err := s.bridges.Create(ctx, userID, bridge.ProviderHue, host, username)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bridge registered", "user_id", userID, "bridge_id", b.ID)
	return b, nil
}

// ListBridges returns userID's bridges in registration order.
func (s *Service) ListBridges(ctx context.Context, userID string) ([]bridge.Bridge, error) {
	return s.bridges.List(ctx, userID)
}

// DeleteBridge removes one of userID's bridges.
func (s *Service) DeleteBridge(ctx context.Context, userID, bridgeID string) error {
	if err := s.bridges.Delete(ctx, userID, bridgeID); err != nil {
		return err
	}
	s.logger.Info("bridge deleted", "user_id", userID, "bridge_id", bridgeID)
	return nil
}

// PairBridge runs the link-button handshake and stores the issued
// username. It fails with device.ErrLinkButtonNotPressed until the
// button has been pressed.
func (s *Service) PairBridge(ctx context.Context, userID, bridgeID string) (string, error) {
	client, err := s.bridgeClient(ctx, userID, bridgeID)
	if err != nil {
		return "", err
	}

	username, err := client.Pair(ctx)
	if err != nil {
		return "", err
	}

	if err := s.bridges.SetUsername(ctx, userID, bridgeID, username); err != nil {
		return "", fmt.Errorf("storing paired username: %w", err)
	}
	s.logger.Info("bridge paired", "user_id", userID, "bridge_id", bridgeID)
	return username, nil
}

// ListScenes returns the scenes stored on one of userID's bridges.
func (s *Service) ListScenes(ctx context.Context, userID, bridgeID string) ([]device.Scene, error) {
	client, err := s.bridgeClient(ctx, userID, bridgeID)
	if err != nil {
		return nil, err
	}
	return client.ListScenes(ctx)
}

// ActivateScene recalls sceneID on groupID and returns the bridge's
// success value.
func (s *Service) ActivateScene(ctx context.Context, userID, bridgeID, groupID, sceneID string) (string, error) {
	client, err := s.bridgeClient(ctx, userID, bridgeID)
	if err != nil {
		return "", err
	}
	return client.ActivateScene(ctx, groupID, sceneID)
}

func (s *Service) bridgeClient(ctx context.Context, userID, bridgeID string) (provider.Client, error) {
	b, err := s.bridges.Get(ctx, userID, bridgeID)
	if err != nil {
		return nil, err
	}
	return s.providers.Bind(*b)
}
