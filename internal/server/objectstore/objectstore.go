// Package objectstore defines the object-store contract the storage
// gateway depends on, plus the S3-compatible implementation used in
// production. Content is addressed by opaque keys; the store never sees
// file metadata.
package objectstore

import "context"

// Store is an opaque put/get/delete keyed blob store.
type Store interface {
	// Put uploads data under key with the given content type and returns
	// the object's URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get fetches the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
