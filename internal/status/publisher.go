// Package status implements the fan-out of the latest ThermodStatus
// snapshot to subscribed monitor connections: best-effort delivery, no
// history, exactly one snapshot in flight per subscriber at a time.
package status

import (
	"sync"

	"github.com/google/uuid"

	"github.com/benvon/thermod/pkg/model"
)

// Subscription is a single GET /monitor long-poll's view onto the
// publisher: C delivers the next published status, ID is returned to the
// client alongside the "name" query parameter echo.
type Subscription struct {
	ID uuid.UUID
	C  <-chan model.ThermodStatus
}

// Publisher fans the latest status out to every current subscriber. A
// subscriber that does not drain its channel before the next Publish call
// misses that snapshot — it must re-subscribe. A full buffer keeps the
// older, undrained snapshot and the newer one is dropped; there is no
// per-subscriber queue.
type Publisher struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan model.ThermodStatus
}

// NewPublisher returns a ready-to-use Publisher.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[uuid.UUID]chan model.ThermodStatus)}
}

// Subscribe registers a new monitor connection and returns its
// Subscription. Callers must call Unsubscribe when done, win or lose.
func (p *Publisher) Subscribe() Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New()
	ch := make(chan model.ThermodStatus, 1)
	p.subs[id] = ch
	return Subscription{ID: id, C: ch}
}

// Unsubscribe removes a subscription, closing its channel so a blocked
// receiver unblocks with a zero value.
func (p *Publisher) Unsubscribe(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[id]; ok {
		delete(p.subs, id)
		close(ch)
	}
}

// Publish delivers status to every current subscriber. Delivery is
// best-effort and non-blocking: a subscriber whose buffered channel is
// still full (it never drained the previous snapshot) is skipped, not
// retried.
func (p *Publisher) Publish(s model.ThermodStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Count reports the number of currently active subscriptions.
func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
