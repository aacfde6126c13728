package restsensor

import (
	"errors"
	"net/http"
	"time"
)

// resourceConfig holds mutable state during resource construction.
type resourceConfig struct {
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

// ResourceOption configures a [Resource] during construction.
//
// Built-in options: [WithMethod], [WithHeaders], [WithPayload],
// [WithBasicAuth], [WithDigestAuth], [WithVerifySSL], [WithTimeout].
type ResourceOption func(*resourceConfig) error

// WithMethod sets the HTTP method. Only GET (default) and POST are supported.
func WithMethod(method string) ResourceOption {
	return func(cfg *resourceConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET or POST")
		}
	}
}

// WithHeaders adds HTTP headers sent with every request.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	res, err := restsensor.NewResource(url,
//	    restsensor.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) ResourceOption {
	return func(cfg *resourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithPayload sets the request body sent on every cycle, typically with POST.
func WithPayload(body string) ResourceOption {
	return func(cfg *resourceConfig) error {
		cfg.payload = body
		cfg.hasPayload = true
		return nil
	}
}

// WithBasicAuth sends HTTP Basic credentials.
//
// Returns an error if the username is empty.
func WithBasicAuth(username, password string) ResourceOption {
	return withAuth(AuthBasic, username, password)
}

// WithDigestAuth answers HTTP Digest challenges with the given credentials.
//
// Returns an error if the username is empty.
func WithDigestAuth(username, password string) ResourceOption {
	return withAuth(AuthDigest, username, password)
}

func withAuth(method AuthMethod, username, password string) ResourceOption {
	return func(cfg *resourceConfig) error {
		if username == "" {
			return errors.New("authentication requires a username")
		}
		cfg.auth = method
		cfg.username = username
		cfg.password = password
		return nil
	}
}

// WithVerifySSL enables or disables TLS certificate verification.
// Verification is on by default.
func WithVerifySSL(verify bool) ResourceOption {
	return func(cfg *resourceConfig) error {
		cfg.verifySSL = verify
		return nil
	}
}

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) ResourceOption {
	return func(cfg *resourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
