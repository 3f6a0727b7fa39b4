// Package influxdb records device state history for Lumen Hub Core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, point writing, and health monitoring.
//
// Every light and plug state change seen on the event bus becomes one
// point in the "device_state" measurement:
//
//	device_state,device_id=hue-1-3,kind=light,owner=u1 on=true,reachable=true,brightness=80
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceState(sample)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; failures
// are reported through the SetOnError callback.
package influxdb
