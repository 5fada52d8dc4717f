// Package uploadurl issues time-limited signed URLs that let clients upload
// a file straight into an object-storage bucket.
//
// An Issuer validates the incoming request, derives a unique storage key and
// asks a Signer for a presigned PUT URL. It holds no state between calls and
// is safe for concurrent use.
//
// # Basic Usage
//
//	issuer, err := uploadurl.NewIssuer(
//	    uploadurl.WithSigner(signer),
//	    uploadurl.WithBucket("my-uploads"),
//	)
//	resp := issuer.Handle(ctx, body)
//	// resp.StatusCode is 200, 400 or 500; resp.Body is JSON
//
// Handle is the boundary used by the Lambda and HTTP entrypoints. Callers who
// want typed results use Issue directly and map errors with StatusCode.
package uploadurl
