// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("site/cache/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	sess := poster.NewSession(poster.WithStore(store))
//
// # Features
//
//   - Range reads, so a body reload fetches only the body block
//   - Uploads through the SDK upload manager (multipart for large posters)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-site isolation
package s3
