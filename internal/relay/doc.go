// Package relay mirrors device state changes from the event bus to the
// optional outer systems: retained MQTT state topics for home automation
// tooling, and InfluxDB points for state history.
//
// The relay is a bus receiver like any client stream, but it reads the
// unredacted event. It never blocks publishers; if it falls behind, the
// bus reports lag and the relay continues from the oldest retained event.
package relay
