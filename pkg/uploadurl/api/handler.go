package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/tendant/presign-upload/pkg/uploadurl"
)

// DefaultMaxBodyBytes bounds the request body read by IssueUploadURL
const DefaultMaxBodyBytes = 64 << 10

// bodyTooLargeMessage is sent when a body exceeds maxBodyBytes
const bodyTooLargeMessage = "request body too large"

// Handler exposes an Issuer over HTTP
type Handler struct {
	issuer       *uploadurl.Issuer
	logger       *slog.Logger
	maxBodyBytes int64
}

func NewHandler(issuer *uploadurl.Issuer) *Handler {
	return &Handler{
		issuer:       issuer,
		logger:       issuer.Logger(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Routes returns the router for upload URL endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Post("/", h.IssueUploadURL)
	r.Post("/generate-presigned-url", h.IssueUploadURL)
	return r
}

// IssueUploadURL handles POST requests carrying {"fileName", "fileType"}.
// Bodies over maxBodyBytes get 413.
func (h *Handler) IssueUploadURL(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(r.Context(), "Rejected oversized request body", "limit", tooLarge.Limit)
			recordIssue(http.StatusRequestEntityTooLarge)
			h.WriteResponse(w, uploadurl.NewErrorResponse(http.StatusRequestEntityTooLarge, bodyTooLargeMessage))
			return
		}
		// Unreadable bodies are treated like empty ones
		h.logger.WarnContext(r.Context(), "Failed to read request body", "error", err)
		body = nil
	}

	resp := h.issuer.Handle(r.Context(), body)
	recordIssue(resp.StatusCode)
	h.WriteResponse(w, resp)
}

// WriteResponse writes an issuer Response to w
func (h *Handler) WriteResponse(w http.ResponseWriter, resp uploadurl.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}
