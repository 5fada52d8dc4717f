package uploadurl

import "time"

// Defaults shared by the issuer, configuration and entrypoints.
const (
	DefaultBucket          = "default-uploads-bucket"
	DefaultKeyPrefix       = "uploads/"
	PresignedURLTTLSeconds = 300 // 5 minutes
	DefaultExpiration      = PresignedURLTTLSeconds * time.Second
)

// UploadRequest is the JSON body sent by clients asking for an upload URL.
type UploadRequest struct {
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
}

// UploadResponse is returned when a URL was issued.
type UploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

// ErrorResponse is returned for any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PutParams describes the object a presigned PUT URL authorizes.
type PutParams struct {
	Bucket      string
	Key         string
	ContentType string
	Expires     time.Duration
}
