package presigned

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/presign-upload/pkg/uploadurl"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSigner_SignURL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := New(WithSecretKey(testSecret), WithClock(fixedClock(now)))

	signed, err := signer.SignURL(http.MethodPut, "/bucket/uploads/a.pdf", "application/pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "/bucket/uploads/a.pdf?signature="))
	assert.True(t, strings.HasSuffix(signed, "&expires=1700000300"))

	t.Run("NoSecretKey", func(t *testing.T) {
		_, err := New().SignURL(http.MethodPut, "/b/k", "text/plain", time.Minute)
		assert.ErrorIs(t, err, ErrNoSecretKey)
	})

	t.Run("DefaultExpiration", func(t *testing.T) {
		signed, err := signer.SignURL(http.MethodPut, "/b/k", "text/plain", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(signed, "&expires=1700000300"))
	})

	t.Run("ExistingQuery", func(t *testing.T) {
		signed, err := signer.SignURL(http.MethodPut, "/b/k?versionId=2", "text/plain", time.Minute)
		require.NoError(t, err)
		assert.Contains(t, signed, "/b/k?versionId=2&signature=")
	})
}

func TestSigner_PresignPut(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := New(
		WithSecretKey(testSecret),
		WithBaseURL("http://localhost:9000/"),
		WithClock(fixedClock(now)),
	)

	signed, err := signer.PresignPut(context.Background(), uploadurl.PutParams{
		Bucket:      "test-uploads-bucket",
		Key:         "uploads/20240102030405_1234abcd.jpg",
		ContentType: "image/jpeg",
		Expires:     300 * time.Second,
	})
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/test-uploads-bucket/uploads/20240102030405_1234abcd.jpg", u.Path)
	assert.Equal(t, "1700000300", u.Query().Get("expires"))
	assert.Len(t, u.Query().Get("signature"), 64)

	_, err = signer.PresignPut(context.Background(), uploadurl.PutParams{Key: "k"})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSigner_ValidateRequest(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := New(WithSecretKey(testSecret), WithBaseURL("http://uploads.local"), WithClock(fixedClock(now)))

	signed, err := signer.PresignPut(context.Background(), uploadurl.PutParams{
		Bucket:      "b",
		Key:         "uploads/report final.pdf",
		ContentType: "application/pdf",
		Expires:     time.Minute,
	})
	require.NoError(t, err)

	newRequest := func(method, target, contentType string) *http.Request {
		r := httptest.NewRequest(method, target, strings.NewReader("data"))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		return r
	}

	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, signer.ValidateRequest(newRequest(http.MethodPut, signed, "application/pdf")))
	})

	t.Run("WrongContentType", func(t *testing.T) {
		err := signer.ValidateRequest(newRequest(http.MethodPut, signed, "image/png"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		err := signer.ValidateRequest(newRequest(http.MethodPost, signed, "application/pdf"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("TamperedPath", func(t *testing.T) {
		tampered := strings.Replace(signed, "/b/", "/other/", 1)
		err := signer.ValidateRequest(newRequest(http.MethodPut, tampered, "application/pdf"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Expired", func(t *testing.T) {
		later := New(WithSecretKey(testSecret), WithClock(fixedClock(now.Add(2*time.Minute))))
		err := later.ValidateRequest(newRequest(http.MethodPut, signed, "application/pdf"))
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("MissingSignature", func(t *testing.T) {
		err := signer.ValidateRequest(newRequest(http.MethodPut, "http://uploads.local/b/k?expires=1", "text/plain"))
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("MissingExpiration", func(t *testing.T) {
		err := signer.ValidateRequest(newRequest(http.MethodPut, "http://uploads.local/b/k?signature=abc", "text/plain"))
		assert.ErrorIs(t, err, ErrMissingExpiration)
	})

	t.Run("InvalidExpiration", func(t *testing.T) {
		err := signer.ValidateRequest(newRequest(http.MethodPut, "http://uploads.local/b/k?signature=abc&expires=soon", "text/plain"))
		assert.ErrorIs(t, err, ErrInvalidExpiration)
	})

	t.Run("NoSecretKey", func(t *testing.T) {
		err := New().ValidateRequest(newRequest(http.MethodPut, signed, "application/pdf"))
		assert.ErrorIs(t, err, ErrNoSecretKey)
	})
}

func TestParseObjectPath(t *testing.T) {
	bucket, key, err := ParseObjectPath("/b/uploads/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "uploads/x.jpg", key)

	for _, p := range []string{"/", "/b", "/b/", "//k"} {
		_, _, err := ParseObjectPath(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "/b/uploads/a%20b.txt", ObjectPath("b", "uploads/a b.txt"))
	assert.Equal(t, "/b/uploads/20240102030405_1234abcd", ObjectPath("b", "uploads/20240102030405_1234abcd"))
}
