// Package platform holds what the social platform clients share.
package platform

import (
	"errors"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

var (
	// ErrUnavailable covers rate limits, 5xx answers and unreadable bodies.
	ErrUnavailable = errors.New("platform unavailable")
	// ErrNotFound means the platform does not know the referenced user or resource.
	ErrNotFound = errors.New("platform resource not found")
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryCount = 2
)

func NewHTTPClient(timeout time.Duration, retryCount int) *httpclient.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 100*time.Millisecond)
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetryCount(retryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)
}
