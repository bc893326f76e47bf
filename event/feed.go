package event

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Feed publishes events to topics. Every source created for a topic receives the
// events published to it from then on, latest first, until its context is done.
// Publish never blocks.
type Feed struct {
	mu      sync.Mutex
	closed  bool
	sources map[string]map[chan Event]struct{}
}

func NewFeed() *Feed {
	return &Feed{sources: map[string]map[chan Event]struct{}{}}
}

func (f *Feed) Publish(topic string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.sources[topic] {
		sendLatest(ch, ev)
	}
}

// Source is an EventSourceFactory. The returned source is closed once ctx is done.
func (f *Feed) Source(ctx context.Context, topic string) (EventSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, errors.New("Attempt to create a source on a closed feed")
	}
	ch := make(chan Event, 1)
	if f.sources[topic] == nil {
		f.sources[topic] = map[chan Event]struct{}{}
	}
	f.sources[topic][ch] = struct{}{}

	context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.sources[topic][ch]; !ok {
			return
		}
		delete(f.sources[topic], ch)
		if len(f.sources[topic]) == 0 {
			delete(f.sources, topic)
		}
		close(ch)
	})
	return ch, nil
}

// Close closes every source. Brokers reading from them stop and close their subscriptions.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for topic, chans := range f.sources {
		for ch := range chans {
			close(ch)
		}
		delete(f.sources, topic)
	}
}
