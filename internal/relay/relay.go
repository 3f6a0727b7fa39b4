package relay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nerrad567/lumenhub-core/internal/device"
	"github.com/nerrad567/lumenhub-core/internal/events"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
)

// Device kinds used in topics and history tags.
const (
	kindLight = "light"
	kindPlug  = "plug"
)

// StatePublisher publishes retained state messages. *mqtt.Client satisfies it.
type StatePublisher interface {
	PublishState(kind, deviceID string, payload []byte) error
}

// HistoryWriter records state samples. *influxdb.Client satisfies it.
type HistoryWriter interface {
	WriteDeviceState(s influxdb.StateSample)
}

// Relay forwards bus events to MQTT and InfluxDB.
type Relay struct {
	bus     *events.Bus
	mqtt    StatePublisher
	history HistoryWriter
	logger  *logging.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithMQTT mirrors every state change to a retained topic.
func WithMQTT(p StatePublisher) Option {
	return func(r *Relay) { r.mqtt = p }
}

// WithHistory records every state change as a time-series point.
func WithHistory(h HistoryWriter) Option {
	return func(r *Relay) { r.history = h }
}

// New creates a relay reading from bus.
func New(bus *events.Bus, logger *logging.Logger, opts ...Option) *Relay {
	r := &Relay{bus: bus, logger: logger.With("component", "relay")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether any output is configured.
func (r *Relay) Enabled() bool {
	return r.mqtt != nil || r.history != nil
}

// Run forwards events until ctx is cancelled or the bus closes.
// It returns nil on either; output failures are logged and skipped.
func (r *Relay) Run(ctx context.Context) error {
	rx := r.bus.SubscribeAll()
	defer rx.Close()

	for {
		ev, err := rx.Recv(ctx)
		var lagged *events.LaggedError
		switch {
		case err == nil:
			r.forward(ev)
		case errors.As(err, &lagged):
			r.logger.Warn("relay fell behind the event bus", "skipped", lagged.Skipped)
		case errors.Is(err, events.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

func (r *Relay) forward(ev events.Event) {
	sample, ok := sampleFor(ev)
	if !ok {
		r.logger.Warn("relay ignoring event with unexpected payload", "kind", ev.Kind)
		return
	}

	if r.mqtt != nil {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			r.logger.Error("encoding state for mqtt", "device_id", sample.DeviceID, "error", err)
		} else if err := r.mqtt.PublishState(sample.Kind, sample.DeviceID, payload); err != nil {
			r.logger.Warn("publishing state to mqtt", "device_id", sample.DeviceID, "error", err)
		}
	}

	if r.history != nil {
		r.history.WriteDeviceState(sample)
	}
}

// sampleFor extracts the history sample from a state event.
func sampleFor(ev events.Event) (influxdb.StateSample, bool) {
	sample := influxdb.StateSample{Owner: ev.OriginUserID, Time: ev.Time}

	switch p := ev.Payload.(type) {
	case device.Light:
		bri := p.Brightness
		sample.Kind = kindLight
		sample.DeviceID = p.ID
		sample.On = p.On
		sample.Brightness = &bri
		sample.Reachable = p.Reachable
	case device.Plug:
		sample.Kind = kindPlug
		sample.DeviceID = p.ID
		sample.On = p.On
		sample.Reachable = p.Reachable
	default:
		return influxdb.StateSample{}, false
	}
	return sample, true
}
