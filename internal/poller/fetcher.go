package poller

import (
	"context"
	"log/slog"
	"net/url"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// FetchResult is the outcome of one [Fetcher.Update].
//
// OK is false when the exchange failed at the transport level (DNS, refused
// connection, TLS, timeout, unreadable or oversized body). In that case Body is empty and
// Err describes the failure.
type FetchResult struct {
	Body       string
	OK         bool
	StatusCode int
	Latency    time.Duration
	FetchedAt  time.Time
	Err        error
}

// Text returns the body and whether the fetch succeeded.
func (r FetchResult) Text() (string, bool) {
	return r.Body, r.OK
}

// Fetcher owns one prepared [Request] and performs it on demand.
type Fetcher struct {
	request Request
	client  *Client
	logger  *slog.Logger
	label   string
}

// NewFetcher creates a [Fetcher] for req. The request is copied; later
// changes to the caller's headers map do not affect it.
func NewFetcher(req Request, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	req.Headers = copyHeaders(req.Headers)
	return &Fetcher{
		request: req,
		client:  NewClient(req),
		logger:  logger,
		label:   redactURL(req.URL),
	}
}

// Update performs exactly one HTTP exchange. It never returns an error: transport failures are logged and reported
// through FetchResult.OK.
func (f *Fetcher) Update(ctx context.Context) FetchResult {
	resp := f.client.Fetch(ctx, f.request)

	result := FetchResult{
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
		FetchedAt:  time.Now(),
		Err:        resp.Error,
	}
	if resp.Error != nil {
		f.logger.Error("error fetching data",
			"method", f.method(),
			"url", f.label,
			"error", resp.Error.Error(),
		)
	} else {
		result.Body = decodeBody(resp.Body, resp.ContentType)
		result.OK = true
	}

	return result
}

// Close releases idle connections held by the fetcher's client.
func (f *Fetcher) Close() {
	f.client.Close()
}

func (f *Fetcher) method() string {
	if f.request.Method == "" {
		return "GET"
	}
	return f.request.Method
}

// redactURL hides any password embedded in the URL before it reaches logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// decodeBody converts body to UTF-8 using the charset named by a BOM or the
// Content-Type header. Undeclared bodies that are already valid UTF-8 are
// kept as is; anything else falls back to windows-1252 like a browser would.
func decodeBody(body []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return string(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func copyHeaders(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
