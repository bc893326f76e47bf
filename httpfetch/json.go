package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vtex/go-fetch/cache"
	"github.com/vtex/go-fetch/sharedflight"
)

const maxErrorBodySize = 512

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// JSON returns a fetch function that GETs url and decodes its JSON body. Concurrent calls share a single request,
// and therefore the same decoded value.
func JSON[T any](client *http.Client, url string) cache.FetchFunc[T] {
	var group sharedflight.Group[T]
	return func(ctx context.Context) (T, error) {
		value, err, _ := group.Do(ctx, url, func(ctx context.Context) (T, error) {
			return getJSON[T](ctx, client, url)
		})
		return value, err
	}
}

func getJSON[T any](ctx context.Context, client *http.Client, url string) (T, error) {
	var result T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result, errors.Wrapf(err, "Failed to create request to %s", url)
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return result, errors.Wrapf(err, "Failed to GET %s", url)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		logrus.WithFields(logrus.Fields{
			"category": "http_fetch",
			"code":     "unexpected_status",
			"url":      url,
			"status":   res.StatusCode,
		}).Warn("Upstream returned an error status")
		return result, &StatusError{URL: url, StatusCode: res.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return result, errors.Wrapf(err, "Failed to decode response from %s", url)
	}
	return result, nil
}
