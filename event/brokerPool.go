package event

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type EventSourceFactory func(ctx context.Context, topic string) (EventSource, error)

// BrokerPool manages a group of brokers which can be accessed and retrieved via a topic.
// It also simplifies the access to the brokers themselves, providing a single Subscribe
// function which automatically makes the unsubscription when the context is cancelled.
//
// A broker is created on the first subscription to its topic, using an EventSource
// created by the factory, and stopped once its last subscriber is gone. The context
// given to the factory is cancelled when that happens.
type BrokerPool interface {
	Subscribe(ctx context.Context, topic string) (EventSource, error)
}

func NewPool(factory EventSourceFactory) BrokerPool {
	return &brokerPool{
		factory: factory,
		brokers: map[string]*poolEntry{},
	}
}

type brokerPool struct {
	factory EventSourceFactory

	lock    sync.RWMutex
	brokers map[string]*poolEntry
}

type poolEntry struct {
	topic  string
	broker Broker
	stopFn func()
}

func (p *brokerPool) Subscribe(ctx context.Context, topic string) (EventSource, error) {
	p.lock.RLock()
	if entry, ok := p.brokers[topic]; ok {
		defer p.lock.RUnlock()
		return p.subscribeLocked(ctx, entry)
	}
	p.lock.RUnlock()

	entry, err := p.createBroker(topic)
	if err != nil {
		return nil, err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if existing, ok := p.brokers[topic]; ok {
		entry.stopFn()
		entry = existing
	} else {
		p.brokers[topic] = entry
	}

	return p.subscribeLocked(ctx, entry)
}

func (p *brokerPool) createBroker(topic string) (*poolEntry, error) {
	ctx, cancel := context.WithCancel(context.Background())
	source, err := p.factory(ctx, topic)
	if err != nil {
		cancel()
		return nil, err
	}

	broker := NewBroker(ctx, source)
	return &poolEntry{topic, broker, cancel}, nil
}

// Must be called whilst locked in the broker pool, otherwise it could run
// concurrently with unsubscribe, which could stop and remove the broker from
// the pool right before the subscription is created. An RLock is enough, as
// unsubscribe always grabs the write lock itself.
func (p *brokerPool) subscribeLocked(ctx context.Context, entry *poolEntry) (EventSource, error) {
	sub, err := entry.broker.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	context.AfterFunc(ctx, func() {
		p.unsubscribe(entry, sub)
	})
	return sub, nil
}

func (p *brokerPool) unsubscribe(entry *poolEntry, sub EventSource) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.brokers[entry.topic] != entry {
		// Already removed from the pool.
		return
	}

	hasMore, err := entry.broker.Unsubscribe(sub)
	if err != nil {
		logrus.WithError(err).
			WithFields(logrus.Fields{
				"category": "event_broker",
				"code":     "broker_unsubscribe_err",
				"topic":    entry.topic,
			}).
			Error("Thought valid subscription not found in origin broker")
	}
	if !hasMore {
		delete(p.brokers, entry.topic)
		entry.stopFn()
	}
}
