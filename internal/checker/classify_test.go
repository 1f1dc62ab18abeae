package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ReasonOK},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonTimeout},
		{name: "client timeout", err: &url.Error{Op: "Head", URL: "http://x", Err: timeoutErr{}}, want: ReasonTimeout},
		{name: "dns", err: &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}, want: ReasonConnectionError},
		{name: "refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: ReasonConnectionError},
		{name: "eof", err: &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, want: ReasonConnectionError},
		{name: "unsupported scheme", err: &url.Error{Op: "Get", URL: "httpx://x", Err: errors.New(`unsupported protocol scheme "httpx"`)}, want: "RequestError: UnsupportedScheme"},
		{name: "redirects", err: &url.Error{Op: "Get", URL: "http://x", Err: fmt.Errorf("%w: stopped after 2", errTooManyRedirects)}, want: "RequestError: TooManyRedirects"},
		{name: "invalid url", err: &requestError{kind: KindInvalidURL, err: errors.New("parse error")}, want: "RequestError: InvalidURL"},
		{name: "other request error", err: &url.Error{Op: "Get", URL: "http://x", Err: errors.New("malformed")}, want: "RequestError: Other"},
		{name: "canceled request", err: &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, want: "RequestError: Canceled"},
		{name: "wrapped request error", err: &url.Error{Op: "Get", URL: "http://x", Err: fmt.Errorf("read: %w", errors.New("bad"))}, want: "RequestError: Other"},
		{name: "typed request error", err: &url.Error{Op: "Get", URL: "http://x", Err: &strconv.NumError{Func: "Atoi", Num: "x", Err: strconv.ErrSyntax}}, want: "RequestError: strconv.NumError"},
		{name: "unexpected", err: errors.New("boom"), want: "UnexpectedError: Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPReason(t *testing.T) {
	tests := []struct {
		code   int
		status string
		want   string
	}{
		{code: 404, status: "404 Not Found", want: "HTTP 404 Not Found"},
		{code: 404, status: "404 Gone Fishing", want: "HTTP 404 Gone Fishing"},
		{code: 599, status: "599 Network Connect Timeout", want: "HTTP 599 Network Connect Timeout"},
		{code: 503, status: "503", want: "HTTP 503 Service Unavailable"},
		{code: 599, status: "599", want: "HTTP 599"},
		{code: 418, status: "", want: "HTTP 418 I'm a teapot"},
	}
	for _, tt := range tests {
		if got := HTTPReason(tt.code, tt.status); got != tt.want {
			t.Errorf("HTTPReason(%d, %q) = %q, want %q", tt.code, tt.status, got, tt.want)
		}
	}
}
