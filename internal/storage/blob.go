// Package storage persists the generated PDF binaries referenced by the
// document records. Content is keyed by filename; depending on the
// deployment it lives in an S3-compatible bucket, in a local keyed store,
// or is reachable at a conventional public path.
package storage

import (
	"context"
	"errors"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

var (
	// ErrNotFound means no blob exists under the requested filename.
	ErrNotFound = errors.New("blob not found")

	// ErrQuotaExceeded means the serialized payload would exceed the
	// local store's size ceiling. Generation still succeeds; only the
	// archive copy is lost.
	ErrQuotaExceeded = errors.New("blob exceeds local storage quota")
)

// Storage kinds reported in FetchResult.
const (
	KindRemote = "remote"
	KindLocal  = "local"
	KindPublic = "public"
)

// SaveResult describes where a blob ended up.
type SaveResult struct {
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size"`
}

// FetchResult is the outcome of a blob lookup. URL, when set, is a fresh
// transient handle computed for this call; callers must not cache it.
type FetchResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Blob    []byte `json:"-"`
	Storage string `json:"storage"`
	Error   string `json:"error,omitempty"`
}

// BlobStore persists and retrieves PDF binaries by filename.
type BlobStore interface {
	// Save stores the blob. Implementations with a remote backend fall
	// back to local storage on upload failure.
	Save(ctx context.Context, filename string, data []byte) (SaveResult, error)

	// Get retrieves the blob. The result carries the failure reason
	// instead of an error so partial outcomes (reachable URL but no
	// bytes) stay expressible.
	Get(ctx context.Context, filename string) *FetchResult

	// Delete removes the blob everywhere it may live. Remote failures
	// are logged, not surfaced.
	Delete(ctx context.Context, filename string) error

	// Usage reports the footprint of the local tier, which exists in
	// every deployment.
	Usage(ctx context.Context) (model.StorageUsage, error)
}
