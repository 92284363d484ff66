package build

import (
	"context"
	"fmt"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	miniostore "github.com/hupe1980/poster/blobstore/minio"
	s3store "github.com/hupe1980/poster/blobstore/s3"
	"github.com/hupe1980/poster/config"
	"github.com/hupe1980/poster/resource"
)

// OpenStore returns the backing store selected by cfg.Store.
//
// The local store uses paths as given; CacheDir resolves them against the
// config directory.
func OpenStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	sc := cfg.Store
	switch sc.Backend {
	case config.BackendLocal, "":
		return blobstore.NewLocalStore(""), nil
	case config.BackendS3:
		opts := []s3store.Option{s3store.WithPrefix(sc.Prefix)}
		if sc.Region != "" {
			opts = append(opts, s3store.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(sc.Endpoint))
		}
		return s3store.New(ctx, sc.Bucket, opts...)
	case config.BackendMinIO:
		return miniostore.New(sc.Endpoint, sc.AccessKey, sc.SecretKey, sc.UseSSL, sc.Bucket, sc.Prefix)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, sc.Backend)
	}
}

// CacheDir returns the directory or key prefix compiled posters go to.
func CacheDir(cfg *config.Config) string {
	if cfg.Store.Backend == config.BackendLocal || cfg.Store.Backend == "" {
		return cfg.Path(cfg.CacheDirectory)
	}
	return cfg.CacheDirectory
}

// NewController returns the resource controller for cfg's limits.
func NewController(cfg *config.Config) *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:     cfg.MemoryLimitBytes,
		MaxBackgroundWorkers: int64(cfg.Workers),
		IOLimitBytesPerSec:   cfg.IOLimitBytesPerSec,
	})
}

// NewSession opens the configured store and returns a session over it.
// With more than one worker the session cache is sharded.
func NewSession(ctx context.Context, cfg *config.Config, rc *resource.Controller, optFns ...poster.Option) (*poster.Session, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []poster.Option{
		poster.WithStore(store),
		poster.WithCacheCapacity(cfg.CacheCapacityBytes),
		poster.WithResourceController(rc),
	}
	if cfg.Workers > 1 {
		opts = append(opts, poster.WithShardedCache())
	}
	return poster.NewSession(append(opts, optFns...)...), nil
}
