package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/presign-upload/pkg/uploadurl"
	"github.com/tendant/presign-upload/pkg/uploadurl/objectkey"
	"github.com/tendant/presign-upload/pkg/uploadurl/presigned"
	"github.com/tendant/presign-upload/pkg/uploadurl/storage/s3"
)

const (
	SignerS3   = "s3"
	SignerHMAC = "hmac"
)

// Config is read from the process environment once at start-up.
type Config struct {
	Bucket                string `env:"UPLOADS_BUCKET" env-default:"default-uploads-bucket" validate:"required"`
	KeyPrefix             string `env:"UPLOAD_KEY_PREFIX" env-default:"uploads/"`
	KeySuffixLength       int    `env:"KEY_SUFFIX_LENGTH" env-default:"8" validate:"min=8,max=32"`
	PresignExpiresSeconds int    `env:"PRESIGN_EXPIRES_SECONDS" env-default:"300" validate:"min=1,max=604800"`
	Signer                string `env:"SIGNER" env-default:"s3" validate:"oneof=s3 hmac"`

	S3   S3Config
	HMAC HMACConfig

	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
}

type S3Config struct {
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	EnableSSE       bool   `env:"S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm    string `env:"S3_SSE_ALGORITHM"`
	SSEKMSKeyID     string `env:"S3_SSE_KMS_KEY_ID"`
}

type HMACConfig struct {
	SecretKey string `env:"HMAC_SECRET_KEY"`
	BaseURL   string `env:"HMAC_BASE_URL" env-default:"http://localhost:9000"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints and signer-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := objectkey.ValidatePrefix(c.KeyPrefix); err != nil {
		return err
	}
	switch c.Signer {
	case SignerHMAC:
		if c.HMAC.SecretKey == "" {
			return errors.New("HMAC_SECRET_KEY is required when SIGNER=hmac")
		}
	case SignerS3:
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	}
	return nil
}

// Expiration returns how long issued URLs stay valid.
func (c *Config) Expiration() time.Duration {
	return time.Duration(c.PresignExpiresSeconds) * time.Second
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// BuildSigner creates the signing collaborator selected by Signer.
func (c *Config) BuildSigner(ctx context.Context) (uploadurl.Signer, error) {
	switch c.Signer {
	case SignerHMAC:
		return presigned.New(
			presigned.WithSecretKey(c.HMAC.SecretKey),
			presigned.WithBaseURL(c.HMAC.BaseURL),
			presigned.WithDefaultExpiration(c.Expiration()),
		), nil
	case SignerS3, "":
		presigner, err := s3.New(ctx, s3.Config{
			Region:          c.S3.Region,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
			EnableSSE:       c.S3.EnableSSE,
			SSEAlgorithm:    c.S3.SSEAlgorithm,
			SSEKMSKeyID:     c.S3.SSEKMSKeyID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 presigner: %w", err)
		}
		return presigner, nil
	default:
		return nil, fmt.Errorf("unsupported signer: %s", c.Signer)
	}
}

// BuildIssuer wires the signer, key generator and bucket into an Issuer.
func (c *Config) BuildIssuer(ctx context.Context, logger *slog.Logger) (*uploadurl.Issuer, error) {
	if err := objectkey.ValidatePrefix(c.KeyPrefix); err != nil {
		return nil, err
	}
	signer, err := c.BuildSigner(ctx)
	if err != nil {
		return nil, err
	}

	keyGen := objectkey.NewTimestampGenerator()
	keyGen.Prefix = c.KeyPrefix
	keyGen.SuffixLength = c.KeySuffixLength

	opts := []uploadurl.Option{
		uploadurl.WithSigner(signer),
		uploadurl.WithBucket(c.Bucket),
		uploadurl.WithKeyGenerator(keyGen),
		uploadurl.WithExpiration(c.Expiration()),
	}
	if logger != nil {
		opts = append(opts, uploadurl.WithLogger(logger))
	}
	return uploadurl.NewIssuer(opts...)
}
