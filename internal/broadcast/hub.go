// Package broadcast implements the per-meeting pub-sub hub §4.10 describes:
// bounded per-subscriber buffers, drop-and-evict on overflow so a slow
// subscriber never blocks the producer. This is deliberately native Go
// channels, not a NATS-backed fan-out — the hub is in-process state per §5's
// suspension-point list, unrelated to the durable audit mirror in
// internal/audit.
package broadcast

import (
	"sync"

	"github.com/PabloGalante/meeting-engine/internal/domain"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
)

// Kind names one of §4.10's event types, plus the hub's own "lagged"
// terminal event sent to an evicted subscriber.
type Kind string

const (
	EventNewMessage       Kind = "new_message"
	EventStatusChange     Kind = "status_change"
	EventStreamingDelta   Kind = "streaming_delta"
	EventMinutesGenerated Kind = "minutes_generated"
	EventMindMapGenerated Kind = "mind_map_generated"
	EventTurnFailed       Kind = "turn_failed"
	EventLagged           Kind = "lagged"
)

// DeltaKind mirrors llm.DeltaKind without importing the llm package, keeping
// the hub independent of any provider-adapter type.
type DeltaKind string

const (
	DeltaReasoning DeltaKind = "reasoning"
	DeltaContent   DeltaKind = "content"
	DeltaComplete  DeltaKind = "complete"
	DeltaError     DeltaKind = "error"
)

// Event is one message delivered to a meeting's subscribers. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind                Kind
	MessageID           string
	Status              domain.Status
	SpeakerID           string
	DeltaKind           DeltaKind
	DeltaText           string
	MinutesVersion      int
	MindMapVersion      int
	ErrorClassification string
}

// BufferSize is the per-subscriber bounded buffer §4.10 suggests.
const BufferSize = 256

type subscriber struct {
	ch chan Event
}

type meetingHub struct {
	mu     sync.Mutex
	subs   map[int64]*subscriber
	nextID int64
}

// Hub owns one fan-out set per meeting.
type Hub struct {
	mu       sync.Mutex
	meetings map[string]*meetingHub
}

// New constructs an empty Hub.
func New() *Hub {
	return &Hub{meetings: make(map[string]*meetingHub)}
}

func (h *Hub) meeting(meetingID string) *meetingHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.meetings[meetingID]
	if !ok {
		m = &meetingHub{subs: make(map[int64]*subscriber)}
		h.meetings[meetingID] = m
	}
	return m
}

// Unsubscribe removes and closes a subscription.
type Unsubscribe func()

// Subscribe registers a new subscriber for meetingID. It receives only
// events published after this call (§4.10: "catch-up is the consumer's
// concern").
func (h *Hub) Subscribe(meetingID string) (<-chan Event, Unsubscribe) {
	m := h.meeting(meetingID)
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	sub := &subscriber{ch: make(chan Event, BufferSize)}
	m.subs[id] = sub

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if s, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, unsubscribe
}

// Publish delivers event to every current subscriber of meetingID in
// publish-call order (§5: "message append order equals ... order of
// new_message events"). A subscriber whose buffer is full is evicted with a
// terminal EventLagged instead of blocking the producer.
func (h *Hub) Publish(meetingID string, event Event) {
	m := h.meeting(meetingID)
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sub := range m.subs {
		select {
		case sub.ch <- event:
		default:
			h.evictLocked(m, id, sub)
		}
	}
}

// evictLocked must be called with m.mu held.
func (h *Hub) evictLocked(m *meetingHub, id int64, sub *subscriber) {
	delete(m.subs, id)
	// Make room for the terminal event by discarding the oldest buffered one.
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- Event{Kind: EventLagged}:
	default:
	}
	close(sub.ch)
	metrics.RecordBroadcastDrop()
}

// SubscriberCount reports how many subscribers a meeting currently has
// (used by metrics and tests).
func (h *Hub) SubscriberCount(meetingID string) int {
	m := h.meeting(meetingID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Close tears down all subscriptions for a meeting, used when a meeting is
// deleted.
func (h *Hub) Close(meetingID string) {
	h.mu.Lock()
	m, ok := h.meetings[meetingID]
	if ok {
		delete(h.meetings, meetingID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subs {
		delete(m.subs, id)
		close(sub.ch)
	}
}
