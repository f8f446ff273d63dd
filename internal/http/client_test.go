// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/fixreporter/internal/logger"
	"github.com/wneessen/fixreporter/internal/testhelper"
)

func TestNew(t *testing.T) {
	client := New(logger.New(slog.LevelInfo))
	if client == nil {
		t.Fatal("expected client to be non-nil")
	}
}

func TestClient_PostForm(t *testing.T) {
	t.Run("posting a form succeeds", func(t *testing.T) {
		var gotReq *stdhttp.Request
		var gotBody string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotReq = req
			data, err := io.ReadAll(req.Body)
			if err != nil {
				t.Fatalf("failed to read request body: %s", err)
			}
			gotBody = string(data)
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       io.NopCloser(strings.NewReader("ok")),
				Header:     make(stdhttp.Header),
			}, nil
		}

		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}
		form := url.Values{}
		form.Set("x", "687123")
		form.Set("y", "5332456")

		status, err := client.PostForm(t.Context(), "https://example.com/position", form)
		if err != nil {
			t.Fatalf("failed to post form: %s", err)
		}
		if status != 200 {
			t.Errorf("expected status code 200, got %d", status)
		}
		if gotReq.Method != stdhttp.MethodPost {
			t.Errorf("expected method to be POST, got %s", gotReq.Method)
		}
		if ct := gotReq.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %s", ct)
		}
		if ua := gotReq.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("expected user agent to be %s, got %s", UserAgent, ua)
		}
		if gotBody != "x=687123&y=5332456" {
			t.Errorf("expected body to be form encoded, got %q", gotBody)
		}
	})
	t.Run("error status codes are returned without error", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 500,
				Body:       io.NopCloser(strings.NewReader("internal error")),
				Header:     make(stdhttp.Header),
			}, nil
		}
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		status, err := client.PostForm(t.Context(), "https://example.com/position", url.Values{})
		if err != nil {
			t.Fatalf("expected no error, got %s", err)
		}
		if status != 500 {
			t.Errorf("expected status code 500, got %d", status)
		}
	})
	t.Run("post request fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		_, err := client.PostForm(t.Context(), "https://example.com/position", url.Values{})
		if err == nil {
			t.Fatal("expected post request to fail")
		}
	})
	t.Run("invalid url fails", func(t *testing.T) {
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		_, err := client.PostForm(t.Context(), "http://example.com/xyz%", url.Values{})
		if err == nil {
			t.Fatal("expected post request to fail")
		}
	})
	t.Run("closing the body fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       &failReadCloser{},
				Header:     make(stdhttp.Header),
			}, nil
		}
		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

		status, err := client.PostForm(t.Context(), "https://example.com/position", url.Values{})
		if err != nil {
			t.Fatalf("expected no error, got %s", err)
		}
		if status != 200 {
			t.Errorf("expected status code 200, got %d", status)
		}
	})
}

func TestClient_PostFormWithTimeout(t *testing.T) {
	t.Run("post request times out", func(t *testing.T) {
		block := make(chan struct{})
		server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(block)

		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		_, err := client.PostFormWithTimeout(t.Context(), server.URL, url.Values{}, time.Millisecond*50)
		if err == nil {
			t.Fatal("expected post request to timeout")
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected error to be %s, got %s", context.DeadlineExceeded, err)
		}
		if !IsTimeout(err) {
			t.Error("expected error to be classified as timeout")
		}
	})
	t.Run("timeouts above the default are honored", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
				select {
				case <-time.After(DefaultTimeout + time.Second*2):
				case <-req.Context().Done():
					return nil, req.Context().Err()
				}
				return &stdhttp.Response{
					StatusCode: 200,
					Body:       io.NopCloser(strings.NewReader("ok")),
					Header:     make(stdhttp.Header),
				}, nil
			}
			client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
			client.Transport = testhelper.MockRoundTripper{Fn: rtFn}

			start := time.Now()
			status, err := client.PostFormWithTimeout(t.Context(), "https://example.com/position", url.Values{},
				time.Second*30)
			if err != nil {
				t.Fatalf("expected post request to succeed, got %s", err)
			}
			if status != 200 {
				t.Errorf("expected status code 200, got %d", status)
			}
			if elapsed := time.Since(start); elapsed != DefaultTimeout+time.Second*2 {
				t.Errorf("expected request to take %s, got %s", DefaultTimeout+time.Second*2, elapsed)
			}
		})
	})
	t.Run("post request against online API", func(t *testing.T) {
		testhelper.PerformIntegrationTests(t)
		client := New(logger.New(slog.LevelInfo))
		status, err := client.PostFormWithTimeout(t.Context(), testhelper.TestOnlineAPIURL, url.Values{}, time.Second*5)
		if err != nil {
			t.Fatalf("post request failed: %s", err)
		}
		if status != 200 {
			t.Errorf("expected status code 200, got %d", status)
		}
	})
}

func TestIsConnectionError(t *testing.T) {
	t.Run("refused connection", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %s", err)
		}
		addr := listener.Addr().String()
		if err = listener.Close(); err != nil {
			t.Fatalf("failed to close listener: %s", err)
		}

		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		_, err = client.PostForm(t.Context(), "http://"+addr+"/position", url.Values{})
		if err == nil {
			t.Fatal("expected post request to fail")
		}
		if !IsConnectionError(err) {
			t.Errorf("expected error to be classified as connection error, got %s", err)
		}
		if IsTimeout(err) {
			t.Error("did not expect refused connection to be classified as timeout")
		}
	})
	t.Run("connection closed before response", func(t *testing.T) {
		server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			hijacker, ok := w.(stdhttp.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hijacker.Hijack()
			if err != nil {
				t.Errorf("failed to hijack connection: %s", err)
				return
			}
			_ = conn.Close()
		}))
		defer server.Close()

		client := New(logger.NewLogger(slog.LevelInfo, io.Discard))
		_, err := client.PostForm(t.Context(), server.URL, url.Values{})
		if err == nil {
			t.Fatal("expected post request to fail")
		}
		if !IsConnectionError(err) {
			t.Errorf("expected error to be classified as connection error, got %s", err)
		}
	})
	t.Run("error classification", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want bool
		}{
			{"nil error", nil, false},
			{"plain error", errors.New("boom"), false},
			{"dns error", &net.DNSError{Err: "no such host", Name: "invalid.example"}, true},
			{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
			{"dial error", &net.OpError{Op: "dial", Err: errors.New("unreachable")}, true},
			{"wrapped refused", &url.Error{Op: "Post", URL: "http://localhost", Err: syscall.ECONNREFUSED}, true},
			{"wrapped eof", &url.Error{Op: "Post", URL: "http://localhost", Err: io.EOF}, true},
			{"unexpected eof", fmt.Errorf("failed to perform HTTP request: %w", io.ErrUnexpectedEOF), true},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if got := IsConnectionError(tc.err); got != tc.want {
					t.Errorf("expected IsConnectionError to be %t, got %t", tc.want, got)
				}
			})
		}
	})
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(nil) {
		t.Error("expected nil error not to be a timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Error("expected plain error not to be a timeout")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("expected deadline exceeded to be a timeout")
	}
}

type failReadCloser struct{}

func (failReadCloser) Read([]byte) (int, error) { return 0, io.EOF }
func (failReadCloser) Close() error             { return errors.New("failed to close") }
