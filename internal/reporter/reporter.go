// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package reporter dispatches projected fixes to the remote position API.
package reporter

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/wneessen/fixreporter/internal/http"
	"github.com/wneessen/fixreporter/internal/logger"
)

const (
	// RetryBackoff is the pause between two dispatch attempts
	RetryBackoff = time.Second * 2

	// ValidFor is the validity in seconds sent along with every report
	ValidFor = "360"
)

// Result tells the caller whether a report counts as sent.
type Result int

const (
	Failed Result = iota
	Sent
)

func (r Result) String() string {
	if r == Sent {
		return "sent"
	}
	return "failed"
}

// Outcome classifies how a dispatch ended.
type Outcome int

const (
	// TransportFailed means no attempt reached the remote endpoint.
	TransportFailed Outcome = iota
	// Delivered means the endpoint accepted the report.
	Delivered
	// Rejected means the endpoint answered with an error status.
	Rejected
	// Unexpected means the request failed for another reason than a connection problem.
	Unexpected
	// Canceled means the context was cancelled before the dispatch completed.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Unexpected:
		return "unexpected"
	case Canceled:
		return "canceled"
	default:
		return "transport_failed"
	}
}

// Result maps the outcome to a Result. Rejected and unexpected outcomes count as sent, the
// identical payload would fail again.
func (o Outcome) Result() Result {
	switch o {
	case Delivered, Rejected, Unexpected:
		return Sent
	default:
		return Failed
	}
}

// Payload is the report sent to the position API.
type Payload struct {
	Easting  int64
	Northing int64
	RadioID  string
	Token    string
}

// Form encodes the payload as form values.
func (p Payload) Form() url.Values {
	form := url.Values{}
	form.Set("x", strconv.FormatInt(p.Easting, 10))
	form.Set("y", strconv.FormatInt(p.Northing, 10))
	form.Set("radioId", p.RadioID)
	form.Set("validFor", ValidFor)
	form.Set("token", p.Token)
	return form
}

// Report describes a finished dispatch.
type Report struct {
	Result     Result
	Outcome    Outcome
	Attempts   int
	StatusCode int
	Err        error
}

// Poster is implemented by the HTTP client.
type Poster interface {
	PostFormWithTimeout(ctx context.Context, endpoint string, form url.Values, timeout time.Duration) (int, error)
}

// Reporter sends payloads to an endpoint with a bounded number of attempts.
type Reporter struct {
	client     Poster
	logger     *logger.Logger
	endpoint   string
	maxRetries int
	timeout    time.Duration
	backoff    time.Duration
}

// New returns a Reporter for endpoint. maxRetries is the total number of attempts and is
// at least one.
func New(client Poster, log *logger.Logger, endpoint string, maxRetries int, timeout time.Duration) *Reporter {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if timeout <= 0 {
		timeout = http.DefaultTimeout
	}
	return &Reporter{
		client:     client,
		logger:     log,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		timeout:    timeout,
		backoff:    RetryBackoff,
	}
}

// Send posts the payload. Only connection failures and timeouts are retried.
func (r *Reporter) Send(ctx context.Context, payload Payload) Report {
	form := payload.Form()
	report := Report{Outcome: TransportFailed}

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		report.Attempts = attempt
		status, err := r.client.PostFormWithTimeout(ctx, r.endpoint, form, r.timeout)
		report.StatusCode, report.Err = status, err

		switch {
		case ctx.Err() != nil:
			report.Outcome = Canceled
			report.Err = ctx.Err()
			report.Result = report.Outcome.Result()
			return report
		case err == nil && status >= 400:
			r.logger.Warn("position report rejected by remote endpoint",
				slog.Int("status", status), slog.Int("attempt", attempt))
			report.Outcome = Rejected
			report.Result = report.Outcome.Result()
			return report
		case err == nil:
			r.logger.Debug("position report delivered", slog.Int("status", status),
				slog.Int("attempt", attempt))
			report.Outcome = Delivered
			report.Result = report.Outcome.Result()
			return report
		case http.IsTimeout(err) || http.IsConnectionError(err):
			r.logger.Warn("failed to reach remote endpoint", logger.Err(err),
				slog.Int("attempt", attempt), slog.Int("max_attempts", r.maxRetries))
		default:
			r.logger.Error("position report failed unexpectedly", logger.Err(err),
				slog.Int("attempt", attempt))
			report.Outcome = Unexpected
			report.Result = report.Outcome.Result()
			return report
		}

		if attempt < r.maxRetries && !sleepOrDone(ctx, r.backoff) {
			report.Outcome = Canceled
			report.Err = ctx.Err()
			report.Result = report.Outcome.Result()
			return report
		}
	}

	r.logger.Error("giving up on position report", slog.Int("attempts", report.Attempts), logger.Err(report.Err))
	report.Result = report.Outcome.Result()
	return report
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
