package restsensor

import (
	"errors"
	"net/url"
	"time"

	"github.com/jpalmerr/restsensor/internal/poller"
)

const defaultResourceTimeout = poller.DefaultTimeout

// AuthMethod selects how credentials are sent to a [Resource].
type AuthMethod string

const (
	// AuthNone sends no credentials.
	AuthNone AuthMethod = ""

	// AuthBasic sends an HTTP Basic Authorization header.
	AuthBasic AuthMethod = "basic"

	// AuthDigest answers HTTP Digest challenges.
	AuthDigest AuthMethod = "digest"
)

// Resource describes one HTTP request to poll.
//
// Resource is immutable after creation via [NewResource]. Getters return
// copies of mutable data, so the request sent on every cycle is exactly the
// one configured.
type Resource struct {
	url        string
	method     string
	headers    map[string]string
	payload    string
	hasPayload bool
	auth       AuthMethod
	username   string
	password   string
	verifySSL  bool
	timeout    time.Duration
}

// URL returns the resource URL.
func (r Resource) URL() string {
	return r.url
}

// Method returns GET or POST.
func (r Resource) Method() string {
	return r.method
}

// Headers returns a copy of the request headers. Returns nil if none are set.
func (r Resource) Headers() map[string]string {
	return copyMap(r.headers)
}

// Payload returns the request body and whether one is configured.
func (r Resource) Payload() (string, bool) {
	return r.payload, r.hasPayload
}

// Auth returns the authentication method and username.
func (r Resource) Auth() (AuthMethod, string) {
	return r.auth, r.username
}

// VerifySSL reports whether TLS certificates are verified.
func (r Resource) VerifySSL() bool {
	return r.verifySSL
}

// Timeout returns the per-request timeout.
func (r Resource) Timeout() time.Duration {
	return r.timeout
}

// NewResource creates a [Resource] for rawURL.
//
// The URL must be absolute with an http or https scheme. Defaults: GET, no
// headers, no payload, no authentication, TLS verification on, 10 second
// timeout.
//
// Example:
//
//	res, err := restsensor.NewResource("https://api.example.com/weather",
//	    restsensor.WithHeaders("Accept", "application/json"),
//	    restsensor.WithBasicAuth("user", "secret"),
//	)
func NewResource(rawURL string, opts ...ResourceOption) (Resource, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Resource{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Resource{}, errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return Resource{}, errors.New("URL must have a host")
	}

	cfg := &resourceConfig{
		method:    "GET",
		headers:   make(map[string]string),
		verifySSL: true,
		timeout:   defaultResourceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Resource{}, err
		}
	}

	return Resource{
		url:        rawURL,
		method:     cfg.method,
		headers:    cfg.headers,
		payload:    cfg.payload,
		hasPayload: cfg.hasPayload,
		auth:       cfg.auth,
		username:   cfg.username,
		password:   cfg.password,
		verifySSL:  cfg.verifySSL,
		timeout:    cfg.timeout,
	}, nil
}

// request converts the resource into the poller's prepared request.
func (r Resource) request() poller.Request {
	return poller.Request{
		Method:  r.method,
		URL:     r.url,
		Headers: copyMap(r.headers),
		Body:    r.payload,
		HasBody: r.hasPayload,
		Auth: poller.Auth{
			Kind:     poller.AuthKind(r.auth),
			Username: r.username,
			Password: r.password,
		},
		InsecureSkipVerify: !r.verifySSL,
		Timeout:            r.timeout,
	}
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
