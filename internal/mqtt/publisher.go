package mqtt

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/AaronLay10/SentientStage/internal/events"
)

// DefaultForwarded lists the event names published by default. Per-tick
// chatter stays on the bus.
var DefaultForwarded = []string{
	"scene.started",
	"scene.stopped",
	"interaction.fired",
	"transition.completed",
	"variable.set",
	"animation.play",
	"link.open",
	"timeline.play",
	"timeline.pause",
	"timeline.stop",
	"timeline.completed",
}

// Publisher forwards bus events to <prefix>/events/<name>.
type Publisher struct {
	conn      Conn
	prefix    string
	forwarded map[string]struct{}
}

// NewPublisher creates a publisher for names. An empty list selects
// DefaultForwarded.
func NewPublisher(conn Conn, prefix string, names ...string) *Publisher {
	if len(names) == 0 {
		names = DefaultForwarded
	}
	p := &Publisher{
		conn:      conn,
		prefix:    strings.TrimSuffix(prefix, "/"),
		forwarded: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		p.forwarded[n] = struct{}{}
	}
	return p
}

// Topic returns the topic an event is published to.
func (p *Publisher) Topic(name string) string {
	return p.prefix + "/events/" + name
}

// Publish sends e if it is forwarded and the connection is up. It reports
// whether the event was sent.
func (p *Publisher) Publish(e events.Event) bool {
	if _, ok := p.forwarded[e.Name]; !ok {
		return false
	}
	if !p.conn.IsConnected() {
		return false
	}
	data, err := json.Marshal(e)
	if err != nil {
		return false
	}
	if err := p.conn.Publish(p.Topic(e.Name), data); err != nil {
		log.Printf("mqtt: publish %s failed: %v", e.Name, err)
		return false
	}
	return true
}

// Run subscribes to bus and publishes until ctx is done or the subscription
// is closed.
func (p *Publisher) Run(ctx context.Context, bus *events.Bus) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			p.Publish(e)
		}
	}
}
