package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// scene
	"scene.loaded":   {},
	"scene.started":  {},
	"scene.stopped":  {},
	"scene.reloaded": {},

	// interaction
	"interaction.fired":     {},
	"transition.scheduled":  {},
	"transition.started":    {},
	"transition.completed":  {},
	"transition.superseded": {},

	// notifications for other subsystems
	"variable.set":   {},
	"animation.play": {},
	"link.open":      {},

	// timeline
	"timeline.clip":      {},
	"timeline.play":      {},
	"timeline.pause":     {},
	"timeline.stop":      {},
	"timeline.seek":      {},
	"timeline.completed": {},

	// remote control
	"operator.fire":  {},
	"operator.seek":  {},
	"mqtt.trigger":   {},
	"mqtt.connected": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
	"system.restored": {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
