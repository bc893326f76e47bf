package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/vtex/go-fetch/cache"
	"github.com/vtex/go-fetch/clock"
	"github.com/vtex/go-fetch/event"
	"github.com/vtex/go-fetch/httpfetch"
	"github.com/vtex/go-fetch/prometheus"
	"github.com/vtex/go-fetch/redis"
	"github.com/vtex/go-fetch/server"
	"github.com/vtex/go-fetch/timeparse"
)

const (
	serviceName     = "fetchd"
	version         = "0.1.0"
	polledTopic     = "polled"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cmd := &cli.Command{
		Name:    serviceName,
		Usage:   "poll and cache a JSON resource, serving it over HTTP",
		Version: version,
		Flags:   flags(configFile()),
		Action:  run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		logrus.WithError(err).WithField("code", "fetchd_exit").Fatal("Exiting")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := setupLogging(cmd.String("log-level"), cmd.Bool("log-json")); err != nil {
		return err
	}

	prometheus.InitClient(promclient.DefaultRegisterer)
	metrics := prometheus.GetClient()

	loop := clock.NewLoop(ctx, 16)
	fetch := httpfetch.JSON[json.RawMessage](httpfetch.NewClient(), cmd.String("url"))
	feed := event.NewFeed()
	defer feed.Close()

	polled := cache.NewPolled(fetch, loop, cmd.Duration("poll-interval"), pollOptions(cmd, feed, metrics)...)
	timed := cache.NewTimed(fetch, clock.System(), cmd.Duration("cache-duration"), timedOptions(cmd, metrics)...)

	if err := polled.Init(ctx); err != nil {
		return errors.Wrap(err, "Failed to initialize polled cache")
	}
	defer polled.Dispose()

	if at := cmd.String("refresh-at"); at != "" {
		refreshAt, ok := timeparse.Parse(at)
		if !ok {
			return errors.Errorf("Invalid refresh time %q", at)
		}
		scheduleDaily(loop, refreshAt, func() {
			if _, err := polled.Fetch(ctx); err != nil {
				logrus.WithError(err).WithField("code", "daily_refresh_failed").Warn("Daily refresh failed")
			}
		})
	}

	srv := &http.Server{
		Addr: cmd.String("listen"),
		Handler: server.New(server.Config[json.RawMessage]{
			Polled:      polled,
			Timed:       timed,
			Events:      event.NewPool(feed.Source),
			Topic:       polledTopic,
			Metrics:     metrics,
			Gatherer:    promclient.DefaultGatherer,
			ServiceName: serviceName,
			Version:     version,
		}),
	}
	return serve(ctx, srv)
}

func pollOptions(cmd *cli.Command, feed *event.Feed, metrics cache.Metrics) []cache.PollOption[json.RawMessage] {
	opts := []cache.PollOption[json.RawMessage]{
		cache.WithPollName[json.RawMessage](polledTopic),
		cache.WithPollMetrics[json.RawMessage](metrics),
		cache.WithMaxRetries[json.RawMessage](int(cmd.Int("max-retries"))),
		cache.WithRequireInitSuccess[json.RawMessage](cmd.Bool("require-init-success")),
		cache.WithOnUpdate(server.PublishUpdates[json.RawMessage](feed, polledTopic)),
	}
	if retry := cmd.Duration("retry-interval"); retry > 0 {
		opts = append(opts, cache.WithRetryInterval[json.RawMessage](retry))
	}
	return opts
}

func timedOptions(cmd *cli.Command, metrics cache.Metrics) []cache.TimedOption[json.RawMessage] {
	cacheDuration, fallback := cmd.Duration("cache-duration"), cmd.Duration("fallback-duration")
	opts := []cache.TimedOption[json.RawMessage]{
		cache.WithTimedName[json.RawMessage]("cached"),
		cache.WithTimedMetrics[json.RawMessage](metrics),
		cache.WithFallback[json.RawMessage](fallback),
	}
	if endpoint := cmd.String("redis-endpoint"); endpoint != "" {
		maxConns := int(cmd.Int("redis-max-connections"))
		client := redis.New(endpoint, cmd.String("redis-namespace"), redis.WithMaxConnections((maxConns+1)/2, maxConns))
		retention := cacheDuration
		if fallback > retention {
			retention = fallback
		}
		remote := cache.NewRedisStore[json.RawMessage](client, "cached", retention)
		opts = append(opts, cache.WithStore(cache.Hybrid(cache.NewMemory[json.RawMessage](), remote)))
	}
	return opts
}

func serve(ctx context.Context, srv *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "Server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "Failed to shut down server")
	}
	return nil
}

func setupLogging(level string, asJSON bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "Invalid log level %q", level)
	}
	logrus.SetLevel(lvl)
	if asJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
