package httpfetch

import (
	"net/http"
	"time"

	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
)

const (
	maxCacheSize   = 512 * 1024 * 1024  // 512MB
	maxCacheAge    = 3 * 24 * time.Hour // 3 days
	requestTimeout = 10 * time.Second
)

// NewClient returns an HTTP client that honours the caching headers of upstream responses, keeping them in memory.
func NewClient() *http.Client {
	transport := httpcache.NewTransport(newHTTPCache())
	client := transport.Client()
	client.Timeout = requestTimeout
	return client
}

func newHTTPCache() httpcache.Cache {
	return lrucache.New(maxCacheSize, (int64)(maxCacheAge/time.Second))
}
