package cache

import (
	"github.com/sirupsen/logrus"
)

const (
	timedCacheLogCategory  = "timed_cache"
	polledCacheLogCategory = "polled_cache"
)

// logger returns a logger with some default fields filled in with default keys.
func logger(category, code, name string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"category": category,
		"cache":    name,
		"code":     code,
	})
}
