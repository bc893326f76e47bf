package main

import (
	"os"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

const (
	configEnv     = "FETCHD_CONFIG"
	defaultConfig = "fetchd.yaml"
)

// configFile is read before flags are parsed, since flag sources are bound when the command is built.
func configFile() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfig
}

func fromConfig(key, path string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(yaml.YAML(key, altsrc.StringSourcer(path)))
}

func flags(path string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Usage:    "JSON resource to poll and cache",
			Sources:  fromConfig("url", path),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "address to serve HTTP on",
			Sources: fromConfig("listen", path),
			Value:   ":8080",
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "delay between polls",
			Sources: fromConfig("polled.interval", path),
			Value:   time.Minute,
		},
		&cli.DurationFlag{
			Name:    "retry-interval",
			Usage:   "delay after a failed poll, zero to use the poll interval",
			Sources: fromConfig("polled.retry_interval", path),
			Value:   10 * time.Second,
		},
		&cli.IntFlag{
			Name:    "max-retries",
			Usage:   "consecutive failed polls retried on the retry interval",
			Sources: fromConfig("polled.max_retries", path),
			Value:   5,
		},
		&cli.BoolFlag{
			Name:    "require-init-success",
			Usage:   "exit if the first poll fails",
			Sources: fromConfig("polled.require_init_success", path),
			Value:   true,
		},
		&cli.StringFlag{
			Name:    "refresh-at",
			Usage:   "time of day to force a refresh, e.g. \"6am\" or \"18:30\"",
			Sources: fromConfig("polled.refresh_at", path),
		},
		&cli.DurationFlag{
			Name:    "cache-duration",
			Usage:   "how long /cached serves a value before fetching again",
			Sources: fromConfig("cached.duration", path),
			Value:   30 * time.Second,
		},
		&cli.DurationFlag{
			Name:    "fallback-duration",
			Usage:   "how long /cached may serve a value when refreshing it fails",
			Sources: fromConfig("cached.fallback", path),
			Value:   5 * time.Minute,
		},
		&cli.StringFlag{
			Name:    "redis-endpoint",
			Usage:   "host:port of a Redis server to share /cached values through",
			Sources: fromConfig("redis.endpoint", path),
		},
		&cli.StringFlag{
			Name:    "redis-namespace",
			Usage:   "prefix of the Redis keys",
			Sources: fromConfig("redis.namespace", path),
			Value:   "fetchd",
		},
		&cli.IntFlag{
			Name:    "redis-max-connections",
			Usage:   "connections kept open to Redis; callers wait once all are busy",
			Sources: fromConfig("redis.max_connections", path),
			Value:   70,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Sources: fromConfig("log.level", path),
			Value:   "info",
		},
		&cli.BoolFlag{
			Name:    "log-json",
			Usage:   "log as JSON",
			Sources: fromConfig("log.json", path),
		},
	}
}
