// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/wneessen/fixreporter/internal/logger"
)

const (
	// DefaultTimeout is the default per-request timeout used by PostForm
	DefaultTimeout = time.Second * 10

	// maxDrainBytes limits how much of a response body is read before closing it
	maxDrainBytes = 64 << 10
)

var (
	// version is the version of the application (will be set at build time)
	version = "dev"
	// UserAgent is the User-Agent that the HTTP client sends with API requests
	UserAgent = fmt.Sprintf("Mozilla/5.0 (%s; %s) fixreporter/%s (+https://github.com/wneessen/fixreporter/)",
		runtime.GOOS,
		runtime.GOARCH,
		version,
	)

	// ErrNilResponse is returned if the transport returned neither a response nor an error
	ErrNilResponse = errors.New("nil response received")
)

// Client is a type wrapper for the Go stdlib http.Client and the Config
type Client struct {
	*http.Client
	logger *logger.Logger
}

// New returns a new HTTP client
func New(logger *logger.Logger) *Client {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	httpTransport := &http.Transport{TLSClientConfig: tlsConfig}
	// Deadlines are set per request, a client-wide Timeout would cap them
	httpClient := &http.Client{Transport: httpTransport}
	return &Client{httpClient, logger}
}

// PostForm performs a form-encoded HTTP POST request for the given URL and returns the
// response status code
func (h *Client) PostForm(ctx context.Context, endpoint string, form url.Values) (int, error) {
	return h.PostFormWithTimeout(ctx, endpoint, form, DefaultTimeout)
}

// PostFormWithTimeout performs a form-encoded HTTP POST request for the given URL and timeout
// and returns the response status code. The response body is discarded.
func (h *Client) PostFormWithTimeout(ctx context.Context, endpoint string, form url.Values, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Prepare HTTP request
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("failed create new HTTP request with context: %w", err)
	}
	request.Header.Set("User-Agent", UserAgent)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Execute HTTP request
	response, err := h.Do(request)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	if response == nil {
		return 0, ErrNilResponse
	}
	defer func(body io.ReadCloser) {
		if _, err := io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes)); err != nil {
			h.logger.Debug("failed to drain HTTP response body", logger.Err(err))
		}
		if err := body.Close(); err != nil {
			h.logger.Error("failed to close HTTP request body", logger.Err(err))
		}
	}(response.Body)

	return response.StatusCode, nil
}

// IsTimeout reports whether err was caused by a request running into its deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectionError reports whether err was caused by failing to reach the remote host, like
// a refused or reset connection, an unreachable network or a failed name lookup. A connection
// that is closed by the server before a response arrives counts as well.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
