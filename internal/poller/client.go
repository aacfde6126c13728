package poller

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/icholy/digest"
)

const maxResponseBodySize = 1 << 20 // 1MB

// ErrBodyTooLarge is reported when a response body exceeds 1MB. The body is
// discarded rather than truncated.
var ErrBodyTooLarge = errors.New("response body exceeds 1MB")

// DefaultTimeout bounds a single fetch when a [Request] does not set one.
const DefaultTimeout = 10 * time.Second

// connection pooling limits to prevent resource exhaustion when polling many resources
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// AuthKind selects how credentials are attached to a request.
type AuthKind string

const (
	AuthNone   AuthKind = ""
	AuthBasic  AuthKind = "basic"
	AuthDigest AuthKind = "digest"
)

// Auth holds the credentials for a [Request].
type Auth struct {
	Kind     AuthKind
	Username string
	Password string
}

// Request is the fully prepared description of one HTTP exchange.
//
// A Request is built once from configuration and reused unchanged for every
// fetch, so the same method, body and header set go out on every cycle.
type Request struct {
	// Method is GET or POST. Empty defaults to GET.
	Method string

	// URL is the target URL.
	URL string

	// Headers are sent verbatim with every request.
	Headers map[string]string

	// Body is the optional request payload.
	Body string

	// HasBody distinguishes an empty payload from no payload.
	HasBody bool

	// Auth selects basic or digest credentials.
	Auth Auth

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Timeout bounds the whole exchange. Zero means [DefaultTimeout].
	Timeout time.Duration
}

// Response holds the result of an HTTP request made by [Client].
//
// Response captures all relevant information from an HTTP request including
// the body (at most 1MB), status code, latency, and any error that occurred.
type Response struct {
	// Body contains the complete HTTP response body. Larger bodies fail
	// with [ErrBodyTooLarge].
	Body []byte

	// ContentType is the response Content-Type header, used to pick the
	// body's character set.
	ContentType string

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client wrapper bound to the transport settings of one
// resource.
//
// TLS verification and digest authentication live on the transport, so a
// Client is built per [Request] by [NewClient]. Timeouts are applied
// per-request via context rather than as a global client timeout.
type Client struct {
	httpClient *http.Client
	base       *http.Transport
}

// NewClient creates a [Client] whose transport matches req.
//
// Connection pooling configuration:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds before closing idle connections
//
// When req uses digest authentication the transport answers the server's
// challenge and replays the request with the computed Authorization header.
func NewClient(req Request) *Client {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		DisableKeepAlives:   false, // explicitly enable connection reuse
	}
	if req.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var transport http.RoundTripper = base
	if req.Auth.Kind == AuthDigest {
		transport = &digest.Transport{
			Username:  req.Auth.Username,
			Password:  req.Auth.Password,
			Transport: base,
		}
	}

	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: transport,
		},
		base: base,
	}
}

// Fetch performs the HTTP exchange described by req and returns a structured
// [Response].
//
// If Method is empty, GET is used. The timeout is applied via context
// cancellation. Bodies over 1MB fail with [ErrBodyTooLarge] instead of
// being truncated. The HTTP status code does not influence Error: a 500 with a
// body is a completed exchange.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, req Request) Response {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.HasBody {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Auth.Kind == AuthBasic {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// one byte past the limit tells a full body from an oversized one
	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize+1)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if len(respBody) > maxResponseBodySize {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      ErrBodyTooLarge,
		}
	}

	return Response{
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Latency:     time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.base == nil {
		return
	}
	c.base.CloseIdleConnections()
}
