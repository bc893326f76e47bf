package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtex/go-fetch/cache"
	"github.com/vtex/go-fetch/event"
)

// streamPolled sends the current value, if any, followed by every update as server-sent events. The stream ends when
// the client goes away or the event source is closed.
func (h *handlers[T]) streamPolled(g *gin.Context) {
	sub, err := h.Events.Subscribe(g.Request.Context(), h.Topic)
	if err != nil {
		abortWithError(g, http.StatusServiceUnavailable, "stream_unavailable", err)
		return
	}

	g.Header("Cache-Control", "no-cache")
	if value, err := h.Polled.Require(); err == nil {
		g.SSEvent(UpdateEvent, value)
		g.Writer.Flush()
	} else if err != cache.ErrNoSuccessfulFetch {
		abortWithError(g, http.StatusServiceUnavailable, "polled_unavailable", err)
		return
	}

	g.Stream(func(w io.Writer) bool {
		ev, ok := <-sub
		if !ok {
			return false
		}
		g.SSEvent(ev.Type, ev.Data)
		return true
	})
}

// PublishUpdates returns a callback for cache.WithOnUpdate that publishes every stored value to topic.
func PublishUpdates[T any](feed *event.Feed, topic string) func(cache.Timestamped[T]) {
	return func(value cache.Timestamped[T]) {
		feed.Publish(topic, event.NewTypedEvent(UpdateEvent, value))
	}
}
