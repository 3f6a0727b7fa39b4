// Package mqtt provides MQTT client connectivity for Lumen Hub Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
// All topics live under the configured prefix (default "lumenhub"):
//
//	lumenhub/system/status              online/offline, retained, LWT
//	lumenhub/state/light/{compositeId}  retained canonical light
//	lumenhub/state/plug/{compositeId}   retained canonical plug
//
// MQTT is a mirror for home automation tooling. Client streams never
// read from it; they use the in-process event bus.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishState("light", "hue-1-3", payload)
package mqtt
