package interaction

import (
	"sync"
	"sync/atomic"

	"github.com/meshpair/meshpair-go/pkg/wire"
)

// Subscription is an owned handle on a hub push-event stream.
type Subscription struct {
	client   *Client
	id       uint32
	command  wire.Command
	handler  EventHandler
	released atomic.Bool
}

// ID returns the hub-assigned subscription id (0 until confirmed).
func (s *Subscription) ID() uint32 {
	return s.id
}

// Command returns the command that opened the subscription.
func (s *Subscription) Command() wire.Command {
	return s.command
}

// Released reports whether Release was called.
func (s *Subscription) Released() bool {
	return s.released.Load()
}

// Release stops event delivery and asks the hub to drop the subscription.
// It is idempotent and never blocks on the network.
func (s *Subscription) Release() {
	if s.released.Swap(true) {
		return
	}
	s.client.unsubscribe(s)
}

// eventQueue is an unbounded FIFO between the read loop and the dispatcher,
// so a slow event handler never stalls response delivery.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*wire.Event
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(ev *wire.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
}

func (q *eventQueue) pop() (*wire.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	ev := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return ev, true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}
