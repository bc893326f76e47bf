package event

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Broker provides a friendly interface to fan-out events to as many subscribers
// registered with it. Notice that an explicit unsubscription is necessary even
// with a context.Context being sent on the subscription call; BrokerPool does it
// automatically.
//
// Subscribers only ever see the latest events: a subscriber that has not
// received its previous event yet has it replaced by the new one, so a slow
// subscriber never blocks the others.
type Broker interface {
	Subscribe(ctx context.Context) (EventSource, error)
	Unsubscribe(src EventSource) (hasMore bool, err error)
}

type broker struct {
	ctx    context.Context
	source EventSource

	lock    sync.Mutex
	clients []client
	stopped bool
}

type client struct {
	C   chan Event
	ctx context.Context
}

func NewBroker(ctx context.Context, source EventSource) Broker {
	b := &broker{
		ctx:     ctx,
		source:  source,
		clients: make([]client, 0, 10),
	}
	go b.sendEventsLoop()
	return b
}

func (b *broker) sendEventsLoop() {
	defer b.unsubscribeAll()

	for {
		select {
		case ev, ok := <-b.source:
			if !ok {
				return
			}
			b.sendToClients(ev)

		case <-b.ctx.Done():
			return
		}
	}
}

func (b *broker) isStopped() bool {
	select {
	case <-b.ctx.Done():
		return true
	default:
		return false
	}
}

func (b *broker) sendToClients(ev Event) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, client := range b.clients {
		if client.ctx.Err() != nil {
			// client done, simply ignore them until they're properly unsubscribed
			continue
		}
		sendLatest(client.C, ev)
	}
}

// sendLatest sends ev without blocking, dropping an undelivered event if the
// channel is full. Must only be called by the single sender of the channel.
func sendLatest(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}

func (b *broker) Subscribe(ctx context.Context) (EventSource, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.stopped || b.isStopped() {
		return nil, errors.New("Attempt to subscribe to an already stopped broker")
	}

	ch := make(chan Event, 1)
	b.clients = append(b.clients, client{ch, ctx})

	return ch, nil
}

func (b *broker) Unsubscribe(client EventSource) (hasMore bool, err error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.stopped {
		// every client was already closed
		return false, nil
	}
	idx := findClientIdx(b.clients, client)
	if idx < 0 {
		return len(b.clients) > 0, errors.New("Tried to unsubscribe inexistent client")
	}

	close(b.clients[idx].C)
	b.clients = append(b.clients[:idx], b.clients[idx+1:]...)
	return len(b.clients) > 0, nil
}

func (b *broker) unsubscribeAll() {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, cl := range b.clients {
		close(cl.C)
	}
	b.clients = nil
	b.stopped = true
}

func findClientIdx(clients []client, elm <-chan Event) int {
	for i, cl := range clients {
		if cl.C == elm {
			return i
		}
	}
	return -1
}
