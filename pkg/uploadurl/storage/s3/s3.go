package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/tendant/presign-upload/pkg/uploadurl"
)

// Config options for the S3 presigner
type Config struct {
	Region          string // AWS region
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// Server-side encryption options
	EnableSSE    bool   // Enable server-side encryption
	SSEAlgorithm string // SSE algorithm (AES256 or aws:kms)
	SSEKMSKeyID  string // Optional KMS key ID for aws:kms algorithm
}

// PresignAPI is the part of *s3.PresignClient the Presigner needs
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner issues presigned PUT URLs for S3 and S3-compatible services.
// Signing happens locally; no request is sent to S3.
type Presigner struct {
	client PresignAPI
	config Config
	logger *slog.Logger
}

var _ uploadurl.Signer = (*Presigner)(nil)

// New creates a Presigner using the default AWS credential chain, or static
// credentials when both keys are set.
func New(ctx context.Context, config Config) (*Presigner, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewFromAWSConfig(awsCfg, config), nil
}

// NewFromAWSConfig creates a Presigner from an already loaded aws.Config
func NewFromAWSConfig(awsCfg aws.Config, config Config) *Presigner {
	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	} else if config.UsePathStyle {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	return NewWithClient(s3.NewPresignClient(client), config)
}

// NewWithClient creates a Presigner around an existing presign client
func NewWithClient(client PresignAPI, config Config) *Presigner {
	return &Presigner{
		client: client,
		config: config,
		logger: slog.Default().With("component", "s3-presigner"),
	}
}

// PresignPut returns a presigned URL for an HTTP PUT of params.Key into
// params.Bucket with the given content type.
func (p *Presigner) PresignPut(ctx context.Context, params uploadurl.PutParams) (string, error) {
	if params.Bucket == "" {
		return "", errors.New("bucket name is required")
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(params.Bucket),
		Key:         aws.String(params.Key),
		ContentType: aws.String(params.ContentType),
	}

	if p.config.EnableSSE {
		switch p.config.SSEAlgorithm {
		case "AES256":
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		case "aws:kms":
			input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			if p.config.SSEKMSKeyID != "" {
				input.SSEKMSKeyId = aws.String(p.config.SSEKMSKeyID)
			}
		}
	}

	expires := params.Expires
	if expires <= 0 {
		expires = uploadurl.DefaultExpiration
	}

	result, err := p.client.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expires
		if params.ContentType != "" {
			opts.ClientOptions = append(opts.ClientOptions, withSignedContentType(params.ContentType))
		}
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			p.logger.ErrorContext(ctx, "S3 presign rejected",
				"bucket", params.Bucket, "key", params.Key,
				"code", apiErr.ErrorCode(), "fault", apiErr.ErrorFault().String())
		}
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return result.URL, nil
}

// withSignedContentType puts Content-Type back on the request after the
// presign stack strips it, so the header is part of X-Amz-SignedHeaders and
// the upload must use the same content type.
func withSignedContentType(contentType string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Build.Add(middleware.BuildMiddlewareFunc("SignContentType",
				func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
					if req, ok := in.Request.(*smithyhttp.Request); ok {
						req.Header.Set("Content-Type", contentType)
					}
					return next.HandleBuild(ctx, in)
				}), middleware.After)
		})
	}
}

func (c Config) validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("both access key ID and secret access key must be set")
	}
	if c.EnableSSE {
		switch c.SSEAlgorithm {
		case "AES256", "aws:kms":
		default:
			return fmt.Errorf("invalid SSE algorithm %q (use AES256 or aws:kms)", c.SSEAlgorithm)
		}
	}
	return nil
}
