package redis

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func logError(err error, code, namespace, key, msg string) {
	logger := logrus.WithError(err).
		WithFields(logrus.Fields{
			"code":         code,
			"category":     "redis_cache",
			"keyNamespace": namespace,
		})
	if key != "" {
		logger = logger.WithField("key", key)
	}
	logger.Error(msg)
}

func remoteKey(ns, key string) (string, error) {
	if key == "" {
		return "", errors.Errorf("Cache key must not be empty (namespace: %s)", ns)
	}
	if ns == "" {
		return key, nil
	}
	return ns + ":" + key, nil
}
