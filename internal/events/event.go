package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/lumenhub-core/internal/device"
)

// Kind identifies what changed.
type Kind string

const (
	KindLightUpdate Kind = "LightUpdate"
	KindPlugUpdate  Kind = "PlugUpdate"
)

// Event is one state change. Payload is a device.Light or device.Plug.
type Event struct {
	ID           string
	Kind         Kind
	Payload      any
	OriginUserID string
	Time         time.Time
}

// LightUpdate builds the event emitted after a successful light write.
func LightUpdate(light device.Light, userID string) Event {
	return newEvent(KindLightUpdate, light, userID)
}

// PlugUpdate builds the event emitted after a successful plug write.
func PlugUpdate(plug device.Plug, userID string) Event {
	return newEvent(KindPlugUpdate, plug, userID)
}

func newEvent(kind Kind, payload any, userID string) Event {
	return Event{
		ID:           uuid.NewString(),
		Kind:         kind,
		Payload:      payload,
		OriginUserID: userID,
		Time:         time.Now().UTC(),
	}
}

// Message is what a client stream delivers.
type Message struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

// redacted serializes as an empty JSON object.
type redacted struct{}

// MessageFor returns the view of e that userID may see.
func (e Event) MessageFor(userID string) Message {
	if e.OriginUserID == userID {
		return Message{Type: e.Kind, Data: e.Payload}
	}
	return Message{Type: e.Kind, Data: redacted{}}
}
