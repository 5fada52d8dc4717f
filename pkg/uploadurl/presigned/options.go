package presigned

import (
	"strings"
	"time"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing
// The key should be at least 32 bytes
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithBaseURL sets the scheme and host prepended to signed paths,
// e.g. "http://localhost:9000". A trailing slash is dropped.
func WithBaseURL(baseURL string) Option {
	return func(s *Signer) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithDefaultExpiration sets the expiration used when none is given
// Default is 5 minutes
func WithDefaultExpiration(duration time.Duration) Option {
	return func(s *Signer) {
		s.defaultExpiration = duration
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}
