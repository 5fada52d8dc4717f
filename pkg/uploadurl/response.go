package uploadurl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Response is a platform-neutral HTTP response, ready to be written by the
// HTTP server or returned to API Gateway.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// ResponseHeaders returns the headers every response carries.
func ResponseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// DecodeRequest parses a request body. An empty or undecodable body yields
// the zero UploadRequest, which then fails validation.
func DecodeRequest(body []byte) UploadRequest {
	var req UploadRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return UploadRequest{}
	}
	return req
}

// Handle runs the whole request/response cycle for one raw request body.
func (i *Issuer) Handle(ctx context.Context, body []byte) Response {
	req := DecodeRequest(body)

	resp, err := i.Issue(ctx, req)
	if err != nil {
		status := StatusCode(err)
		if status >= http.StatusInternalServerError {
			i.logger.ErrorContext(ctx, "Failed to issue upload URL",
				"op", opOf(err), "file_name", req.FileName, "error", err)
		} else {
			i.logger.WarnContext(ctx, "Rejected upload URL request", "error", err)
		}
		return newResponse(status, ErrorResponse{Error: err.Error()})
	}

	i.logger.DebugContext(ctx, "Issued upload URL", "bucket", i.bucket, "key", resp.Key)
	return newResponse(http.StatusOK, resp)
}

// NewErrorResponse builds an error Response with the standard headers.
func NewErrorResponse(status int, message string) Response {
	return newResponse(status, ErrorResponse{Error: message})
}

func newResponse(status int, v any) Response {
	body, err := encodeJSON(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = encodeJSON(ErrorResponse{Error: err.Error()})
	}
	return Response{
		StatusCode: status,
		Headers:    ResponseHeaders(),
		Body:       body,
	}
}

// encodeJSON keeps '&' in URLs unescaped.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func opOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
