package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

// DefaultLocalQuota caps the serialized payload of one locally stored blob.
const DefaultLocalQuota = 5 * 1024 * 1024

// blobEnvelope is the on-disk format of the local keyed store: the content
// base64-encoded next to the declared size and MIME type used for the
// integrity check on read.
type blobEnvelope struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	SavedAt  string `json:"saved_at"`
}

// LocalStore is a directory-backed keyed blob store, the fallback (or the
// only) persistence tier depending on deployment.
type LocalStore struct {
	dir      string
	maxBytes int64
	log      *zap.Logger
	now      func() time.Time
}

func NewLocalStore(dir string, maxBytes int64, log *zap.Logger) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultLocalQuota
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes, log: log, now: time.Now}, nil
}

var _ BlobStore = (*LocalStore)(nil)

// Save serializes the blob into its envelope and writes it under the
// filename key. Payloads whose serialized form exceeds the quota are
// rejected with ErrQuotaExceeded.
func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (SaveResult, error) {
	env := blobEnvelope{
		Filename: filename,
		Data:     base64.StdEncoding.EncodeToString(data),
		Size:     int64(len(data)),
		MimeType: "application/pdf",
		SavedAt:  s.now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return SaveResult{}, err
	}
	if int64(len(payload)) > s.maxBytes {
		return SaveResult{}, fmt.Errorf("%w: %d > %d bytes", ErrQuotaExceeded, len(payload), s.maxBytes)
	}

	path := s.path(filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("write blob: %w", err)
	}
	s.log.Debug("blob stored locally",
		zap.String("filename", filename), zap.Int64("size", env.Size))
	return SaveResult{URL: path, Size: env.Size}, nil
}

// Get reconstructs the blob from its envelope. A size mismatch between the
// decoded content and the recorded size is logged and the content is still
// served.
func (s *LocalStore) Get(_ context.Context, filename string) *FetchResult {
	payload, err := os.ReadFile(s.path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &FetchResult{Storage: KindLocal, Error: ErrNotFound.Error()}
		}
		return &FetchResult{Storage: KindLocal, Error: err.Error()}
	}

	var env blobEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return &FetchResult{Storage: KindLocal, Error: fmt.Sprintf("corrupt envelope: %v", err)}
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return &FetchResult{Storage: KindLocal, Error: fmt.Sprintf("corrupt content: %v", err)}
	}
	if int64(len(data)) != env.Size {
		s.log.Warn("blob size mismatch, serving anyway",
			zap.String("filename", filename),
			zap.Int64("recorded", env.Size),
			zap.Int("actual", len(data)))
	}
	return &FetchResult{Success: true, Blob: data, Storage: KindLocal}
}

// Delete removes the stored envelope. A missing key is not an error.
func (s *LocalStore) Delete(_ context.Context, filename string) error {
	err := os.Remove(s.path(filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// Usage walks the store directory and reports its footprint. Every .json
// envelope counts toward the totals; the ones that no longer unmarshal,
// decode, or match their recorded size are also counted as corrupt.
func (s *LocalStore) Usage(_ context.Context) (model.StorageUsage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return model.StorageUsage{}, fmt.Errorf("read blob dir: %w", err)
	}

	usage := model.StorageUsage{QuotaBytes: s.maxBytes}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		usage.Files++

		path := filepath.Join(s.dir, entry.Name())
		payload, err := os.ReadFile(path)
		if err != nil {
			usage.CorruptFiles++
			continue
		}
		usage.TotalBytes += int64(len(payload))

		var env blobEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			usage.CorruptFiles++
			continue
		}
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil || int64(len(data)) != env.Size {
			usage.CorruptFiles++
		}
	}
	return usage, nil
}

func (s *LocalStore) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename)+".json")
}
