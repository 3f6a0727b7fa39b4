package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/device"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/lumenhub-core/internal/provider"
)

// ProviderName is the composite id segment for Hue devices.
const ProviderName = bridge.ProviderHue

// maxResponseSize caps how much of a bridge response is read.
const maxResponseSize = 4 << 20

// Observer records the outcome of every bridge call.
type Observer interface {
	ObserveBridgeRequest(provider, op, outcome string, elapsed time.Duration)
}

// Provider creates Hue clients. It holds the HTTP client shared by every
// bridge; http.Client is safe for concurrent use.
type Provider struct {
	httpClient *http.Client
	appID      string
	logger     *logging.Logger
	observer   Observer
}

// Option configures a Provider.
type Option func(*Provider)

// WithObserver records bridge call metrics.
func WithObserver(o Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// NewProvider creates the Hue provider.
//
// Parameters:
//   - httpClient: Shared outbound client; its Timeout bounds each bridge call
//   - appID: Sent as "devicetype" when pairing
//   - logger: Receives per-bridge listing failures
func NewProvider(httpClient *http.Client, appID string, logger *logging.Logger, opts ...Option) *Provider {
	p := &Provider{
		httpClient: httpClient,
		appID:      appID,
		logger:     logger.With("component", "hue"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return ProviderName
}

// Bind implements provider.Provider.
func (p *Provider) Bind(b bridge.Bridge) provider.Client {
	return &Client{
		provider: p,
		bridge:   b,
		logger:   p.logger.With("bridge_id", b.ID),
	}
}

// Client talks to one Hue bridge.
type Client struct {
	provider *Provider
	bridge   bridge.Bridge
	logger   *logging.Logger
}

var _ provider.Client = (*Client)(nil)

// deviceURL builds http://{address}/api/{username}/{path...}.
func (c *Client) deviceURL(path ...string) string {
	u := url.URL{Scheme: "http", Host: c.bridge.Address}
	return u.JoinPath(append([]string{"api", c.bridge.Username}, path...)...).String()
}

func (c *Client) requirePaired() error {
	if !c.bridge.Paired() {
		return fmt.Errorf("%w: bridge %s is not paired", device.ErrUpstreamUnreachable, c.bridge.ID)
	}
	return nil
}

// doRequest performs one bridge call and returns the raw body.
//
// Transport failures wrap device.ErrUpstreamUnreachable; non-2xx
// statuses wrap device.ErrUpstreamProtocol.
func (c *Client) doRequest(ctx context.Context, op, method, target string, body any) (data []byte, err error) {
	start := time.Now()
	defer func() {
		if c.provider.observer != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			c.provider.observer.ObserveBridgeRequest(ProviderName, op, outcome, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.provider.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", device.ErrUpstreamUnreachable, op, err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", device.ErrUpstreamUnreachable, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", device.ErrUpstreamProtocol, op, resp.StatusCode)
	}
	return data, nil
}

// getJSON fetches target and decodes it into out, surfacing bridge
// error arrays first.
func (c *Client) getJSON(ctx context.Context, op, target string, out any) error {
	data, err := c.doRequest(ctx, op, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if err := firstError(data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", device.ErrUpstreamProtocol, op, err)
	}
	return nil
}

// putState writes a state body and surfaces the first error the bridge reports.
func (c *Client) putState(ctx context.Context, op, deviceID string, body any) error {
	data, err := c.doRequest(ctx, op, http.MethodPut, c.deviceURL("lights", deviceID, "state"), body)
	if err != nil {
		return err
	}
	return firstError(data)
}

// fetchDevices loads the full lights map. Callers list from it.
func (c *Client) fetchDevices(ctx context.Context, op string) (map[string]wireDevice, bool) {
	if !c.bridge.Paired() {
		c.logger.Debug("skipping unpaired bridge")
		return nil, false
	}

	var devices map[string]wireDevice
	if err := c.getJSON(ctx, op, c.deviceURL("lights"), &devices); err != nil {
		c.logger.Warn("listing bridge devices failed", "op", op, "error", err)
		return nil, false
	}
	return devices, true
}

func (c *Client) fetchDevice(ctx context.Context, op, deviceID string) (wireDevice, error) {
	if err := c.requirePaired(); err != nil {
		return wireDevice{}, err
	}
	var d wireDevice
	if err := c.getJSON(ctx, op, c.deviceURL("lights", deviceID), &d); err != nil {
		return wireDevice{}, err
	}
	return d, nil
}
