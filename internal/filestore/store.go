// Package filestore defines the read-only interface to object storage
// holding raw CAL-ACCESS extracts.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	obj, err := store.GetObject(ctx, cfg.Bucket, cfg.ExtractKey("FILERS_CD"))
package filestore

import (
	"context"
	"sort"
)

// Store is the interface every storage provider implements. It only reads.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// ListObjects returns the objects in bucket that match opts.
	// Virtual directory entries (common prefixes) are included when opts.Recursive is false.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}

// ListExtracts returns the table files under cfg.Prefix, sorted by key.
func ListExtracts(ctx context.Context, s Store, cfg *Config) ([]ObjectInfo, error) {
	objs, err := s.ListObjects(ctx, cfg.Bucket, ListOptions{Prefix: cfg.Prefix, Recursive: true})
	if err != nil {
		return nil, err
	}
	out := objs[:0]
	for _, o := range objs {
		if _, ok := TableFromKey(o.Key); ok && !o.IsDir {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
