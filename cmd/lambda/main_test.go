package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/presign-upload/pkg/uploadurl"
)

func newTestIssuer(t *testing.T, signer uploadurl.Signer) *uploadurl.Issuer {
	t.Helper()
	issuer, err := uploadurl.NewIssuer(
		uploadurl.WithSigner(signer),
		uploadurl.WithBucket("test-uploads-bucket"),
		uploadurl.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return issuer
}

func TestLambdaHandler_Success(t *testing.T) {
	var got uploadurl.PutParams
	handler := newHandler(newTestIssuer(t, uploadurl.SignerFunc(func(ctx context.Context, p uploadurl.PutParams) (string, error) {
		got = p
		return "https://test-presigned-url.com", nil
	})))

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		Body: `{"fileName": "test-file.jpg", "fileType": "image/jpeg"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	var body uploadurl.UploadResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "https://test-presigned-url.com", body.UploadURL)
	assert.True(t, strings.HasPrefix(body.Key, "uploads/"))
	assert.Contains(t, body.Key, ".jpg")

	assert.Equal(t, "test-uploads-bucket", got.Bucket)
	assert.Equal(t, body.Key, got.Key)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, 300*time.Second, got.Expires)
}

func TestLambdaHandler_MissingParameters(t *testing.T) {
	called := false
	handler := newHandler(newTestIssuer(t, uploadurl.SignerFunc(func(ctx context.Context, p uploadurl.PutParams) (string, error) {
		called = true
		return "", nil
	})))

	for _, body := range []string{`{}`, ``} {
		resp, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: body})
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, `{"error":"fileName and fileType are required"}`, resp.Body)
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	}
	assert.False(t, called)
}

func TestLambdaHandler_Exception(t *testing.T) {
	handler := newHandler(newTestIssuer(t, uploadurl.SignerFunc(func(ctx context.Context, p uploadurl.PutParams) (string, error) {
		return "", errors.New("Test exception")
	})))

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		Body: `{"fileName": "test-file.jpg", "fileType": "image/jpeg"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var body uploadurl.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "Test exception", body.Error)
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	handler := newHandler(newTestIssuer(t, uploadurl.SignerFunc(func(ctx context.Context, p uploadurl.PutParams) (string, error) {
		return "https://signed", nil
	})))

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"fileName":"a.txt","fileType":"text/plain"}`))
	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: encoded, IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = handler(context.Background(), events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
