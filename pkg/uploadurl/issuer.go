package uploadurl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tendant/presign-upload/pkg/uploadurl/objectkey"
)

// Signer produces a presigned URL authorizing an HTTP PUT of one object.
type Signer interface {
	PresignPut(ctx context.Context, params PutParams) (string, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context, params PutParams) (string, error)

func (f SignerFunc) PresignPut(ctx context.Context, params PutParams) (string, error) {
	return f(ctx, params)
}

// Issuer validates upload requests and issues presigned upload URLs
type Issuer struct {
	signer   Signer
	keyGen   objectkey.Generator
	bucket   string
	expires  time.Duration
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures an Issuer
type Option func(*Issuer) error

// WithSigner sets the signing collaborator. Required.
func WithSigner(signer Signer) Option {
	return func(i *Issuer) error {
		i.signer = signer
		return nil
	}
}

// WithBucket sets the target bucket. Defaults to DefaultBucket.
func WithBucket(bucket string) Option {
	return func(i *Issuer) error {
		if bucket == "" {
			return errors.New("bucket name cannot be empty")
		}
		i.bucket = bucket
		return nil
	}
}

// WithKeyGenerator replaces the default timestamp key generator
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(i *Issuer) error {
		i.keyGen = gen
		return nil
	}
}

// WithExpiration sets how long issued URLs stay valid. Defaults to 300s.
func WithExpiration(d time.Duration) Option {
	return func(i *Issuer) error {
		if d <= 0 {
			return errors.New("expiration must be positive")
		}
		i.expires = d
		return nil
	}
}

// WithLogger sets the logger used for failures
func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) error {
		i.logger = logger
		return nil
	}
}

// NewIssuer creates an Issuer with the given options
func NewIssuer(opts ...Option) (*Issuer, error) {
	i := &Issuer{
		keyGen:   objectkey.NewTimestampGenerator(),
		bucket:   DefaultBucket,
		expires:  DefaultExpiration,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.signer == nil {
		return nil, errors.New("signer is required")
	}
	if i.keyGen == nil {
		return nil, errors.New("key generator is required")
	}
	return i, nil
}

// Bucket returns the bucket issued URLs point at
func (i *Issuer) Bucket() string {
	return i.bucket
}

// Logger returns the logger the issuer reports failures to
func (i *Issuer) Logger() *slog.Logger {
	return i.logger
}

// Issue validates req, derives a storage key and asks the signer for a URL.
// Errors are always *Error; use StatusCode or KindOf to classify them.
func (i *Issuer) Issue(ctx context.Context, req UploadRequest) (resp *UploadResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = unhandledError("issue", recoveredError(r))
		}
	}()

	if err := i.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(ErrMissingFields)
	}

	key, err := i.keyGen.GenerateKey(req.FileName)
	if err != nil {
		return nil, unhandledError("generate key", err)
	}

	url, err := i.signer.PresignPut(ctx, PutParams{
		Bucket:      i.bucket,
		Key:         key,
		ContentType: req.FileType,
		Expires:     i.expires,
	})
	if err != nil {
		return nil, unhandledError("presign", err)
	}

	return &UploadResponse{UploadURL: url, Key: key}, nil
}
