// Package webhook posts JSON bodies to the remote endpoints of the shop.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "webhook"})

// ErrPermanent is wrapped by errors which will not go away by retrying.
var ErrPermanent = errors.New("permanent webhook failure")

// StatusError is returned when the endpoint answered with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook %s answered with status %d", e.URL, e.StatusCode)
}

// Unwrap makes 4xx answers match ErrPermanent.
func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrPermanent
	}
	return nil
}

// Result describes a completed delivery.
type Result struct {
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

type Client struct {
	httpClient *http.Client

	// Secret enables the signature header if not empty.
	Secret string
	// Retries is the number of additional attempts after a failed one.
	Retries int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
	// DryRun logs requests instead of sending them.
	DryRun bool
}

// NewClient creates a client whose individual requests time out after
// timeout.
func NewClient(timeout time.Duration, retries int, secret string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		Secret:     secret,
		Retries:    retries,
		Backoff:    time.Second,
	}
}

// Post delivers body to url. It retries transport errors and 5xx answers.
func (c *Client) Post(ctx context.Context, url string, body []byte) (Result, error) {
	start := time.Now()
	entry := log.WithFields(logrus.Fields{"url": url})

	if c.DryRun {
		entry.WithFields(logrus.Fields{"body": string(body)}).Info("Dry run, not sending webhook")
		return Result{StatusCode: http.StatusOK, Attempts: 0, Duration: time.Since(start)}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.Retries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Result{Attempts: attempt - 1, Duration: time.Since(start)}, fmt.Errorf("webhook %s: %w (last error: %v)", url, ctx.Err(), lastErr)
			case <-time.After(time.Duration(attempt-1) * c.Backoff):
			}
		}

		statusCode, err := c.send(ctx, url, body)
		result := Result{StatusCode: statusCode, Attempts: attempt, Duration: time.Since(start)}
		if err == nil {
			entry.WithFields(logrus.Fields{"status": statusCode, "attempt": attempt}).Debug("Webhook delivered")
			return result, nil
		}
		if errors.Is(err, ErrPermanent) {
			return result, err
		}

		lastErr = err
		entry.WithFields(logrus.Fields{"err": err, "attempt": attempt}).Warn("Webhook attempt failed")
	}

	return Result{Attempts: c.Retries + 1, Duration: time.Since(start)}, fmt.Errorf("webhook %s failed after %d attempts: %w", url, c.Retries+1, lastErr)
}

func (c *Client) send(ctx context.Context, url string, body []byte) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		request.Header.Set(SignatureHeader, Sign(body, c.Secret))
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(response.Body, 64<<10))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response.StatusCode, &StatusError{URL: url, StatusCode: response.StatusCode}
	}
	return response.StatusCode, nil
}
