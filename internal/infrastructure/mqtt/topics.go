package mqtt

import "fmt"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "lumenhub"

// Topics builds topic names under one prefix.
//
//	topics := mqtt.Topics{Prefix: "lumenhub"}
//	topics.State("light", "hue-1-3")
//	// Returns: "lumenhub/state/light/hue-1-3"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// SystemStatus returns the retained online/offline topic.
//
// Example: lumenhub/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// State returns the retained state topic for one device.
//
// Example: lumenhub/state/plug/hue-2-7
func (t Topics) State(kind, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.prefix(), kind, deviceID)
}
