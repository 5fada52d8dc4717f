package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tendant/presign-upload/pkg/uploadurl"
	"github.com/tendant/presign-upload/pkg/uploadurl/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	issuer, err := cfg.BuildIssuer(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to build issuer", "error", err)
		os.Exit(1)
	}

	logger.Info("Upload URL issuer ready", "bucket", cfg.Bucket, "signer", cfg.Signer)
	lambda.Start(newHandler(issuer))
}

// newHandler adapts the issuer to API Gateway proxy events
func newHandler(issuer *uploadurl.Issuer) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				// Undecodable bodies are treated like empty ones
				slog.WarnContext(ctx, "Failed to decode base64 body", "error", err)
				decoded = nil
			}
			body = decoded
		}

		resp := issuer.Handle(ctx, body)
		return events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}, nil
	}
}
