package event

import (
	"encoding/json"
	"sync"
)

// Event is one change notification as delivered to subscribers.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Broker is an in-process publish/subscribe fanout feeding SSE streams.
// Slow subscribers lose events rather than blocking publishers.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the consumer goes away.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish marshals payload once and fans it out. Events to full
// subscriber queues are dropped.
func (b *Broker) Publish(name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ev := Event{Name: name, Payload: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
