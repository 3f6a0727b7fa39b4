package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// stateMeasurement is the measurement every device state sample is written to.
const stateMeasurement = "device_state"

// StateSample is one observed light or plug state.
type StateSample struct {
	DeviceID string
	Kind     string // "light" or "plug"
	Owner    string
	On       bool
	// Brightness is only recorded for lights.
	Brightness *float64
	Reachable  bool
	Time       time.Time
}

// WriteDeviceState records a state sample.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Samples are tagged by device_id, kind and owner so history can be
// queried per device or per user.
//
// Example:
//
//	client.WriteDeviceState(influxdb.StateSample{
//	    DeviceID: "hue-1-3", Kind: "light", Owner: userID,
//	    On: true, Reachable: true, Time: ev.Time,
//	})
func (c *Client) WriteDeviceState(s StateSample) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"on":        s.On,
		"reachable": s.Reachable,
	}
	if s.Brightness != nil {
		fields["brightness"] = *s.Brightness
	}

	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		stateMeasurement,
		map[string]string{
			"device_id": s.DeviceID,
			"kind":      s.Kind,
			"owner":     s.Owner,
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}
