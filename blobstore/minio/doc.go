// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client, so it also works against Ceph, SeaweedFS,
// Garage and other S3-compatible services.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-site", "cache/")
//	sess := poster.NewSession(poster.WithStore(store))
//
// Air-gap friendly: no AWS SDK dependency is required.
package minio
