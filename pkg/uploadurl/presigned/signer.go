package presigned

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/presign-upload/pkg/uploadurl"
)

var (
	ErrNoSecretKey       = errors.New("presigned: no secret key configured")
	ErrMissingSignature  = errors.New("presigned: missing signature parameter")
	ErrMissingExpiration = errors.New("presigned: missing expires parameter")
	ErrInvalidExpiration = errors.New("presigned: invalid expires parameter")
	ErrExpired           = errors.New("presigned: URL has expired")
	ErrInvalidSignature  = errors.New("presigned: invalid signature")
	ErrInvalidPath       = errors.New("presigned: path must be /{bucket}/{key}")
)

// Signer generates and validates HMAC-signed presigned URLs
type Signer struct {
	secretKey         []byte
	baseURL           string
	defaultExpiration time.Duration
	now               func() time.Time
}

var _ uploadurl.Signer = (*Signer)(nil)

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		defaultExpiration: uploadurl.DefaultExpiration,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignURL generates a presigned URL for the given HTTP method, path and content type.
// Returns the path with signature and expiration query parameters,
// prefixed with the base URL when one is configured.
//
// Example:
//
//	url, err := signer.SignURL("PUT", "/bucket/uploads/a.pdf", "application/pdf", 5*time.Minute)
//	// Returns: /bucket/uploads/a.pdf?signature=abc123...&expires=1696789012
func (s *Signer) SignURL(method, path, contentType string, expiresIn time.Duration) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrNoSecretKey
	}

	if expiresIn <= 0 {
		expiresIn = s.defaultExpiration
	}

	expiresAt := s.now().Add(expiresIn).Unix()
	signature := s.generateSignature(createPayload(method, path, contentType, expiresAt))

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s%ssignature=%s&expires=%d",
		s.baseURL, path, separator, signature, expiresAt), nil
}

// PresignPut signs a PUT of params.Key into params.Bucket
func (s *Signer) PresignPut(ctx context.Context, params uploadurl.PutParams) (string, error) {
	if params.Bucket == "" {
		return "", ErrInvalidPath
	}
	return s.SignURL(http.MethodPut, ObjectPath(params.Bucket, params.Key), params.ContentType, params.Expires)
}

// ValidateRequest validates the signature and expiration of an HTTP request
// Returns an error if the signature is invalid or the URL has expired
func (s *Signer) ValidateRequest(r *http.Request) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}

	query := r.URL.Query()
	signature := query.Get("signature")
	expiresStr := query.Get("expires")

	if signature == "" {
		return ErrMissingSignature
	}
	if expiresStr == "" {
		return ErrMissingExpiration
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}

	// Preserve original query params except signature and expires
	path := r.URL.EscapedPath()
	cleanQuery := url.Values{}
	for k, v := range query {
		if k != "signature" && k != "expires" {
			cleanQuery[k] = v
		}
	}
	if len(cleanQuery) > 0 {
		path = path + "?" + cleanQuery.Encode()
	}

	return s.Validate(r.Method, path, r.Header.Get("Content-Type"), signature, expiresAt)
}

// Validate validates the signature and expiration for a given method, path,
// content type, signature, and expiration timestamp
func (s *Signer) Validate(method, path, contentType, signature string, expiresAt int64) error {
	if s.now().Unix() > expiresAt {
		return ErrExpired
	}

	expected := s.generateSignature(createPayload(method, path, contentType, expiresAt))

	// Constant-time comparison
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// ObjectPath returns the escaped URL path /{bucket}/{key}
func ObjectPath(bucket, key string) string {
	u := url.URL{Path: "/" + bucket + "/" + key}
	return u.EscapedPath()
}

// ParseObjectPath splits a /{bucket}/{key} path
func ParseObjectPath(path string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", ErrInvalidPath
	}
	return bucket, key, nil
}

// createPayload format: METHOD|PATH|CONTENT-TYPE|EXPIRES
func createPayload(method, path, contentType string, expiresAt int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", method, path, contentType, expiresAt)
}

func (s *Signer) generateSignature(payload string) string {
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
