// Package presigned provides HMAC-signed upload URLs for storage backends
// that do not sign their own, and a client for the upload workflow.
//
// # Signing
//
//	signer := presigned.New(
//	    presigned.WithSecretKey("your-secret-key"),
//	    presigned.WithBaseURL("http://localhost:9000"),
//	)
//	url, err := signer.PresignPut(ctx, uploadurl.PutParams{
//	    Bucket:      "uploads-bucket",
//	    Key:         "uploads/20261017093000_1f0c9a2b.jpg",
//	    ContentType: "image/jpeg",
//	    Expires:     5 * time.Minute,
//	})
//	// http://localhost:9000/uploads-bucket/uploads/20261017093000_1f0c9a2b.jpg?signature=...&expires=...
//
// The signature covers the method, path, content type and expiry, so the
// receiving side must see the same Content-Type header the URL was issued for.
//
// # Validation
//
// A receiver holding the same secret checks incoming uploads:
//
//	if err := signer.ValidateRequest(r); err != nil {
//	    // errors.Is(err, presigned.ErrExpired), presigned.ErrInvalidSignature, ...
//	}
//
// # Client
//
//	client := presigned.NewClient()
//	issued, err := client.RequestUploadURL(ctx, endpoint, "photo.jpg", "image/jpeg")
//	err = client.Upload(ctx, issued.UploadURL, file, presigned.WithContentType("image/jpeg"))
package presigned
