package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"syscall"
)

// Reason kinds, in detection priority.
const (
	ReasonOK              = "OK"
	ReasonTimeout         = "Timeout"
	ReasonConnectionError = "ConnectionError"
	ReasonRequestError    = "RequestError"
	ReasonHTTPError       = "HTTP"
	ReasonUnexpectedError = "UnexpectedError"
)

// Request error kinds that have a stable name.
const (
	KindInvalidURL        = "InvalidURL"
	KindTooManyRedirects  = "TooManyRedirects"
	KindUnsupportedScheme = "UnsupportedScheme"
	KindCanceled          = "Canceled"
	KindOther             = "Other"
	KindPanic             = "panic"
)

var errTooManyRedirects = errors.New("too many redirects")

// Classify maps a transport error to a reason string. Detection order is
// timeout, connection failure, request error, then anything else.
func Classify(err error) string {
	switch {
	case err == nil:
		return ReasonOK
	case isTimeout(err):
		return ReasonTimeout
	case isConnectionError(err):
		return ReasonConnectionError
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return ReasonRequestError + ": " + reqErr.kind
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ReasonRequestError + ": " + requestKind(urlErr)
	}
	return ReasonUnexpectedError + ": " + errorKind(err)
}

// HTTPReason formats the reason for a response with status >= 400. status is
// the response status line as received ("599 Custom Phrase"); its phrase wins
// over the standard text for code.
func HTTPReason(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	if text == "" {
		return fmt.Sprintf("%s %d", ReasonHTTPError, code)
	}
	return fmt.Sprintf("%s %d %s", ReasonHTTPError, code, text)
}

// requestError marks failures that happen before a request is sent.
type requestError struct {
	kind string
	err  error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var (
		dnsErr     *net.DNSError
		opErr      *net.OpError
		recordErr  tls.RecordHeaderError
		certErr    *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		alertErr   tls.AlertError
	)
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return true
	case errors.As(err, &recordErr), errors.As(err, &certErr), errors.As(err, &alertErr):
		return true
	case errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// Server closed the connection before sending a response.
		return true
	}
	return strings.Contains(err.Error(), "tls: ")
}

func requestKind(urlErr *url.Error) string {
	inner := urlErr.Err
	switch {
	case errors.Is(inner, errTooManyRedirects):
		return KindTooManyRedirects
	case strings.Contains(inner.Error(), "unsupported protocol scheme"):
		return KindUnsupportedScheme
	case strings.Contains(inner.Error(), "no Host in request URL"):
		return KindInvalidURL
	}
	return errorKind(inner)
}

// errorKind names err by its type. Plain errors built with errors.New or
// fmt.Errorf carry no useful type and map to KindOther.
func errorKind(err error) string {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	name := typeName(err)
	if strings.HasPrefix(name, "errors.") || strings.HasPrefix(name, "fmt.") {
		return KindOther
	}
	return name
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		return pkg[strings.LastIndex(pkg, "/")+1:] + "." + t.Name()
	}
	return t.Name()
}
