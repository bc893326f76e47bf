package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/vtex/go-fetch/cache"
	"github.com/vtex/go-fetch/event"
	"github.com/vtex/go-fetch/prometheus"
)

// UpdateEvent is the type of the events published for every value stored by the polled cache.
const UpdateEvent = "update"

type Config[T any] struct {
	Polled *cache.Polled[T]
	Timed  *cache.Timed[T]

	// Events is subscribed to on Topic by every stream request.
	Events event.BrokerPool
	Topic  string

	Metrics  prometheus.PrometheusClient
	Gatherer promclient.Gatherer

	ServiceName, Version string
}

type handlers[T any] struct {
	Config[T]
}

// New builds the HTTP surface of the daemon. Metrics are only recorded and exposed when both Metrics and Gatherer are
// set.
func New[T any](cfg Config[T]) *gin.Engine {
	h := &handlers[T]{cfg}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Metrics != nil {
		engine.Use(prometheus.Middleware(cfg.Metrics, cfg.ServiceName, cfg.Version))
	}

	engine.GET("/polled", h.getPolled)
	engine.GET("/polled/stream", h.streamPolled)
	engine.POST("/polled/refresh", h.refreshPolled)
	engine.GET("/cached", h.getCached)
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}

func (h *handlers[T]) getPolled(g *gin.Context) {
	value, err := h.Polled.Require()
	if err != nil {
		abortWithError(g, http.StatusServiceUnavailable, "polled_unavailable", err)
		return
	}
	g.JSON(http.StatusOK, value)
}

func (h *handlers[T]) refreshPolled(g *gin.Context) {
	value, err := h.Polled.Fetch(g.Request.Context())
	if err == cache.ErrNotInitialized {
		abortWithError(g, http.StatusServiceUnavailable, "polled_unavailable", err)
		return
	} else if err != nil {
		abortWithError(g, http.StatusBadGateway, "refresh_failed", err)
		return
	}
	g.JSON(http.StatusOK, value)
}

func (h *handlers[T]) getCached(g *gin.Context) {
	result, err := h.Timed.Get(g.Request.Context())
	if err != nil {
		abortWithError(g, http.StatusBadGateway, "cached_unavailable", err)
		return
	}
	g.JSON(http.StatusOK, result)
}

func abortWithError(g *gin.Context, status int, code string, err error) {
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"category": "server",
		"code":     code,
		"path":     g.FullPath(),
	})
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		entry.Error("Request failed")
	} else {
		entry.Info("Request failed")
	}
	g.AbortWithStatusJSON(status, gin.H{"code": code, "message": err.Error()})
}
