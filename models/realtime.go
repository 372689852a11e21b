package models

// Realtime message event names. The channel speaks JSON frames of the shape
// {event, ...payload}; EventOperation frames carry one pull-shaped operation.
const (
	EventOperation = "sync:operation"
	EventSubscribe = "subscribe"
	EventError     = "error"
)

// SubscribeMessage narrows a realtime connection to a subset of changes in
// addition to the default all-entities group. An empty message resets the
// connection to the default group.
type SubscribeMessage struct {
	// ProjectIDs limits project-scoped entities to the named projects
	// (used while a single project is open on screen).
	ProjectIDs []string `json:"projectIds,omitempty"`

	// Entities limits delivery to the named entity kinds.
	Entities []EntityKind `json:"entities,omitempty"`
}

// RealtimeFrame is the envelope of every message on the realtime channel.
type RealtimeFrame struct {
	Event     string            `json:"event"`
	Operation *Operation        `json:"operation,omitempty"`
	Subscribe *SubscribeMessage `json:"subscribe,omitempty"`
	Error     string            `json:"error,omitempty"`
}
