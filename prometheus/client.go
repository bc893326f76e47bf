package prometheus

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vtex/go-fetch/cache"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var client PrometheusClient

// PrometheusClient records the metrics of the HTTP server and of the caches it serves.
type PrometheusClient interface {
	cache.Metrics

	OpenRequest(req RequestData)
	ObserveDuration(req RequestData, initTime time.Time)
	CloseRequest(req RequestData, status string)
}

type prometheusClient struct {
	requestsMapStatus   *prometheus.CounterVec
	requestsMapCurrent  *prometheus.GaugeVec
	requestsMapDuration *prometheus.HistogramVec

	cacheGets          *prometheus.CounterVec
	cacheFetches       *prometheus.CounterVec
	cacheFetchDuration *prometheus.HistogramVec
	pollFailures       *prometheus.GaugeVec
}

type RequestData struct {
	ServiceName, Version, Method, Path string
}

// NewClient creates a client and registers its collectors with reg.
func NewClient(reg prometheus.Registerer) (PrometheusClient, error) {
	p := &prometheusClient{
		requestsMapStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "io_http_requests_total",
			Help: "The total number of requests which were performed.",
		}, []string{"serviceName", "version", "method", "path", "status"}),
		requestsMapCurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "io_http_requests_current",
			Help: "The current number of requests in course.",
		}, []string{"serviceName", "version", "method", "path"}),
		requestsMapDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "io_http_request_duration_seconds",
			Help: "The duration of the requests in seconds.",
		}, []string{"serviceName", "version", "method", "path"}),

		cacheGets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_cache_gets_total",
			Help: "The total number of timed cache reads, by kind of result.",
		}, []string{"cache", "result"}),
		cacheFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_cache_fetches_total",
			Help: "The total number of calls to fetch functions.",
		}, []string{"cache", "status"}),
		cacheFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fetch_cache_fetch_duration_seconds",
			Help: "The duration of calls to fetch functions in seconds.",
		}, []string{"cache"}),
		pollFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fetch_cache_poll_consecutive_failures",
			Help: "The number of polls that failed since the last successful fetch.",
		}, []string{"cache"}),
	}

	for _, c := range []prometheus.Collector{
		p.requestsMapStatus, p.requestsMapCurrent, p.requestsMapDuration,
		p.cacheGets, p.cacheFetches, p.cacheFetchDuration, p.pollFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "Failed to register prometheus collector")
		}
	}
	return p, nil
}

func (p *prometheusClient) OpenRequest(req RequestData) {
	labels := getDefaultLabels(req)
	p.requestsMapCurrent.With(labels).Inc()
}

func (p *prometheusClient) ObserveDuration(req RequestData, initTime time.Time) {
	labels := getDefaultLabels(req)
	p.requestsMapDuration.With(labels).Observe(time.Since(initTime).Seconds())
}

func (p *prometheusClient) CloseRequest(req RequestData, status string) {
	labels := getDefaultLabels(req)
	p.requestsMapCurrent.With(labels).Dec()

	labels["status"] = status
	p.requestsMapStatus.With(labels).Inc()
}

func (p *prometheusClient) ObserveGet(cacheName, result string) {
	p.cacheGets.WithLabelValues(cacheName, result).Inc()
}

func (p *prometheusClient) ObserveFetch(cacheName string, started time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	p.cacheFetches.WithLabelValues(cacheName, status).Inc()
	p.cacheFetchDuration.WithLabelValues(cacheName).Observe(time.Since(started).Seconds())
}

func (p *prometheusClient) SetConsecutiveFailures(cacheName string, failures int) {
	p.pollFailures.WithLabelValues(cacheName).Set(float64(failures))
}

func getDefaultLabels(req RequestData) prometheus.Labels {
	return prometheus.Labels{"serviceName": req.ServiceName, "version": req.Version, "method": req.Method, "path": req.Path}
}

func InitClient(reg prometheus.Registerer) {
	if client != nil {
		panic("The client has already been initialized.")
	}

	c, err := NewClient(reg)
	if err != nil {
		panic(err)
	}
	client = c
}

func GetClient() PrometheusClient {
	if client == nil {
		panic("Init the prometheus client before access it")
	}
	return client
}
