// Package events fans panel state snapshots out to live subscribers (the SSE
// endpoint).
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/micro-nova/piconfig-go/internal/models"
)

const subBufferSize = 4

// Bus is a non-blocking publish-subscribe bus of state snapshots.
// A slow subscriber loses intermediate snapshots but always receives the most
// recent one, since each snapshot supersedes the ones before it.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan models.State
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan models.State),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// Call Unsubscribe with the id when done.
func (b *Bus) Subscribe() (string, <-chan models.State) {
	id := uuid.NewString()
	ch := make(chan models.State, subBufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends a snapshot to every subscriber without blocking. When a
// subscriber's buffer is full its oldest snapshot is discarded.
func (b *Bus) Publish(state models.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		for {
			select {
			case ch <- state:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
