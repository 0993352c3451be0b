package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/scene"
)

// TriggerPayload is a remote trigger request.
type TriggerPayload struct {
	NodeID  string        `json:"node_id"`
	Trigger scene.Trigger `json:"trigger"`
	Key     string        `json:"key,omitempty"`
}

// ParseTrigger parses and validates a trigger payload.
func ParseTrigger(data []byte) (*TriggerPayload, error) {
	var payload TriggerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid trigger JSON: %w", err)
	}
	if payload.NodeID == "" {
		return nil, fmt.Errorf("node_id is required")
	}
	if !scene.ValidTrigger(payload.Trigger) {
		return nil, fmt.Errorf("unknown trigger: %s", payload.Trigger)
	}
	return &payload, nil
}

// Firer queues a trigger on the player. player.Player implements it.
type Firer interface {
	Fire(nodeID string, trigger scene.Trigger, key string) error
}

// TriggerSubscriber listens on <prefix>/trigger and fires what it receives.
type TriggerSubscriber struct {
	conn   Conn
	firer  Firer
	bus    *events.Bus
	prefix string
}

func NewTriggerSubscriber(conn Conn, firer Firer, bus *events.Bus, prefix string) *TriggerSubscriber {
	return &TriggerSubscriber{
		conn:   conn,
		firer:  firer,
		bus:    bus,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Topic returns the subscribed topic.
func (s *TriggerSubscriber) Topic() string {
	return s.prefix + "/trigger"
}

// Subscribe registers the handler on the connection.
func (s *TriggerSubscriber) Subscribe() error {
	return s.conn.Subscribe(s.Topic(), s.Handler())
}

// Handler returns the message handler. Bad payloads and rejected triggers
// are reported as system.error events.
func (s *TriggerSubscriber) Handler() paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		payload, err := ParseTrigger(msg.Payload())
		if err != nil {
			s.bus.Emit("error", "system.error", "invalid mqtt trigger", map[string]interface{}{
				"topic": msg.Topic(),
				"error": err.Error(),
			})
			return
		}

		if err := s.firer.Fire(payload.NodeID, payload.Trigger, payload.Key); err != nil {
			s.bus.Emit("error", "system.error", "mqtt trigger rejected", map[string]interface{}{
				"node_id": payload.NodeID,
				"trigger": string(payload.Trigger),
				"error":   err.Error(),
			})
			return
		}

		fields := map[string]interface{}{
			"node_id": payload.NodeID,
			"trigger": string(payload.Trigger),
		}
		if payload.Key != "" {
			fields["key"] = payload.Key
		}
		s.bus.Emit("info", "mqtt.trigger", "", fields)
	}
}
