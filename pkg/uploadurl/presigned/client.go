package presigned

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tendant/presign-upload/pkg/uploadurl"
)

// Client requests upload URLs from the issuer and uploads files to them
type Client struct {
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	progressFunc  ProgressFunc
}

// ProgressFunc is called during upload to report progress
// It receives the number of bytes uploaded so far
type ProgressFunc func(bytesUploaded int64)

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new presigned upload client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // Long timeout for large uploads
		},
		retryAttempts: 3,
		retryDelay:    1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry configures retry behavior for uploads
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// WithProgress sets a progress callback function
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// RequestUploadURL asks the issuer at endpoint for an upload URL.
// A non-2xx answer is returned as an error carrying the issuer's message.
func (c *Client) RequestUploadURL(ctx context.Context, endpoint, fileName, fileType string) (*uploadurl.UploadResponse, error) {
	payload, err := json.Marshal(uploadurl.UploadRequest{FileName: fileName, FileType: fileType})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request upload URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp uploadurl.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, &IssueError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return nil, &IssueError{StatusCode: resp.StatusCode, Message: "Failed to get pre-signed URL"}
	}

	var issued uploadurl.UploadResponse
	if err := json.Unmarshal(body, &issued); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &issued, nil
}

// IssueError is returned when the issuer rejects a request
type IssueError struct {
	StatusCode int
	Message    string
}

func (e *IssueError) Error() string {
	return fmt.Sprintf("upload URL request failed (%d): %s", e.StatusCode, e.Message)
}

// Upload uploads data to a presigned URL.
// Transport errors and 5xx responses are retried; 4xx responses are not.
// Retries need a seekable reader; other readers are sent once.
//
// Example:
//
//	client := presigned.NewClient()
//	err := client.Upload(ctx, presignedURL, fileReader, presigned.WithContentType("image/png"))
func (c *Client) Upload(ctx context.Context, presignedURL string, data io.Reader, opts ...UploadOption) error {
	uploadOpts := &uploadOptions{
		contentType: "application/octet-stream",
	}
	for _, opt := range opts {
		opt(uploadOpts)
	}

	seeker, canRewind := data.(io.Seeker)
	attempts := c.retryAttempts
	if !canRewind {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("failed to rewind upload body: %w", err)
			}
		}

		reader := data
		if c.progressFunc != nil {
			reader = &progressReader{reader: data, callback: c.progressFunc}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if uploadOpts.contentLength > 0 {
			req.ContentLength = uploadOpts.contentLength
		}
		req.Header.Set("Content-Type", uploadOpts.contentType)
		for k, v := range uploadOpts.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("upload failed: %w", err)
			continue
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("upload failed with status: %s", resp.Status)

		// Don't retry on client errors (4xx)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", attempts, lastErr)
}

// uploadOptions contains upload configuration
type uploadOptions struct {
	contentType   string
	contentLength int64
	headers       map[string]string
}

// UploadOption is a functional option for Upload method
type UploadOption func(*uploadOptions)

// WithContentType sets the Content-Type header for the upload.
// It must match the fileType the URL was issued for.
func WithContentType(contentType string) UploadOption {
	return func(o *uploadOptions) {
		o.contentType = contentType
	}
}

// WithContentLength sets the request's Content-Length
func WithContentLength(n int64) UploadOption {
	return func(o *uploadOptions) {
		o.contentLength = n
	}
}

// WithHeader adds a custom header to the upload request
func WithHeader(key, value string) UploadOption {
	return func(o *uploadOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.bytesRead)
	}
	return n, err
}
