// Package checker probes stream URLs for liveness.
package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/models"
)

// DefaultChunkSize bounds the body bytes read when a GET response carries no Content-Length.
const DefaultChunkSize = 1024

// Options configures a Prober.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int
	InsecureTLS  bool
	ChunkSize    int
	Transport    http.RoundTripper // optional, for tests
}

// Prober performs liveness checks: HEAD first, GET as fallback.
type Prober struct {
	httpClient *http.Client
	userAgent  string
	chunkSize  int
	logger     zerolog.Logger
}

// New creates a new Prober.
func New(opts Options) *Prober {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureTLS}
		transport = t
	}
	maxRedirects := opts.MaxRedirects
	return &Prober{
		userAgent: opts.UserAgent,
		chunkSize: opts.ChunkSize,
		logger:    xlog.WithComponent("checker"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
	}
}

// Close releases idle connections held by the underlying transport.
func (p *Prober) Close() {
	p.httpClient.CloseIdleConnections()
}

// attempt is the outcome of a single HEAD or GET.
type attempt struct {
	method        string
	statusCode    int
	status        string
	contentLength *int64
	finalURL      string
	elapsed       time.Duration
	err           error
}

func (a attempt) ok() bool { return a.err == nil && a.statusCode < 400 }

// Probe checks rawURL. HEAD is tried first; a transport error or a status
// >= 400 triggers one GET. There is no further retry.
func (p *Prober) Probe(ctx context.Context, rawURL string) (result models.ProbeResult) {
	result = models.ProbeResult{URL: rawURL}
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			result.OK = false
			result.Reason = ReasonUnexpectedError + ": " + KindPanic
			result.Error = &msg
			p.logger.Error().Str(xlog.FieldURL, rawURL).Interface("panic", r).Msg("probe panicked")
		}
	}()

	head := p.do(ctx, http.MethodHead, rawURL)
	if head.ok() {
		return toResult(rawURL, head)
	}
	p.logger.Debug().
		Str(xlog.FieldURL, rawURL).
		Int(xlog.FieldStatusCode, head.statusCode).
		AnErr("head_error", head.err).
		Msg("HEAD failed, falling back to GET")

	return toResult(rawURL, p.do(ctx, http.MethodGet, rawURL))
}

// do performs one request and releases the response before returning.
func (p *Prober) do(ctx context.Context, method, rawURL string) attempt {
	a := attempt{method: method}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		a.err = &requestError{kind: KindInvalidURL, err: err}
		a.elapsed = time.Since(start)
		return a
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		a.err = err
		a.elapsed = time.Since(start)
		return a
	}
	defer resp.Body.Close()

	a.statusCode = resp.StatusCode
	a.status = resp.Status
	if resp.Request != nil && resp.Request.URL != nil {
		a.finalURL = resp.Request.URL.String()
	}
	if resp.ContentLength >= 0 {
		n := resp.ContentLength
		a.contentLength = &n
	} else if method == http.MethodGet {
		// Only one bounded chunk is consumed; the rest of the stream is discarded on close.
		n, _ := io.ReadFull(resp.Body, make([]byte, p.chunkSize))
		size := int64(n)
		a.contentLength = &size
	}
	a.elapsed = time.Since(start)
	return a
}

func toResult(rawURL string, a attempt) models.ProbeResult {
	r := models.ProbeResult{
		URL:           rawURL,
		ElapsedMS:     a.elapsed.Milliseconds(),
		ContentLength: a.contentLength,
		TestedWith:    a.method,
		FinalURL:      a.finalURL,
	}
	switch {
	case a.err != nil:
		msg := a.err.Error()
		r.Error = &msg
		r.Reason = Classify(a.err)
	case a.statusCode >= 400:
		code := a.statusCode
		r.StatusCode = &code
		r.Reason = HTTPReason(code, a.status)
		msg := r.Reason
		r.Error = &msg
	default:
		code := a.statusCode
		r.StatusCode = &code
		r.OK = true
		r.Reason = ReasonOK
	}
	return r
}
