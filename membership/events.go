package membership

import (
	"github.com/chinnucsk/mem3/eventbus"
	"github.com/chinnucsk/mem3/internal/telemetry"
)

// EventsTopic is the event bus topic membership events are published on.
const EventsTopic = "membership_events"

// EventType enumerates the membership event kinds.
type EventType string

const (
	EventNodeJoin  EventType = "node_join"
	EventNodeLeave EventType = "node_leave"
	EventNodeUp    EventType = "nodeup"
	EventNodeDown  EventType = "nodedown"
)

// Event is published on the event bus whenever ring membership or node
// liveness changes.
type Event struct {
	Type   EventType
	NodeID string
}

func publishEvent(bus *eventbus.Bus, typ EventType, nodeID string) {
	if bus == nil {
		return
	}

	bus.Publish(EventsTopic, Event{Type: typ, NodeID: nodeID})
	telemetry.EventsPublished.WithLabelValues(string(typ)).Inc()
}
