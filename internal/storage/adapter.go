package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/model"
)

const (
	// publicSizeFloor rejects public-path hits that are too small to be a
	// real document, typically an SPA index page served for any path.
	publicSizeFloor = 10000

	presignExpiry = 15 * time.Minute
)

// Adapter is the deployment-aware blob store. A hosted deployment carries
// a remote object store and probes a conventional public path on reads;
// the local keyed store is always present as the fallback tier.
type Adapter struct {
	remote        ObjectStore // nil in a local-only deployment
	local         *LocalStore
	publicBaseURL string // e.g. https://example.org/documents, empty disables the probe
	httpClient    *http.Client
	log           *zap.Logger
}

func NewAdapter(remote ObjectStore, local *LocalStore, publicBaseURL string, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		remote:        remote,
		local:         local,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		log:           log,
	}
}

var _ BlobStore = (*Adapter)(nil)

// Save uploads to the remote store when one is configured, falling back to
// the local keyed store on any upload failure. Local-only deployments go
// straight to the local store.
func (a *Adapter) Save(ctx context.Context, filename string, data []byte) (SaveResult, error) {
	if a.remote != nil {
		info, err := a.remote.Put(ctx, filename, bytes.NewReader(data), PutObjectOptions{
			Size:        int64(len(data)),
			ContentType: "application/pdf",
		})
		if err == nil {
			url, perr := a.remote.PresignGet(ctx, filename, presignExpiry)
			if perr != nil {
				a.log.Warn("presign after upload failed", zap.String("filename", filename), zap.Error(perr))
			}
			return SaveResult{URL: url, Size: info.Size}, nil
		}
		a.log.Warn("remote upload failed, falling back to local store",
			zap.String("filename", filename), zap.Error(err))
	}
	return a.local.Save(ctx, filename, data)
}

// Get looks the blob up tier by tier: the conventional public path first,
// then the remote store, then the local keyed store. The URL in the result
// is recomputed on every call.
func (a *Adapter) Get(ctx context.Context, filename string) *FetchResult {
	if res := a.probePublic(ctx, filename); res != nil {
		return res
	}

	if a.remote != nil {
		if res := a.fetchRemote(ctx, filename); res != nil {
			return res
		}
	}

	res := a.local.Get(ctx, filename)
	if !res.Success {
		a.log.Debug("blob not found in any tier", zap.String("filename", filename))
	}
	return res
}

// Delete removes the blob from every tier. The remote delete is best
// effort; the local removal always runs.
func (a *Adapter) Delete(ctx context.Context, filename string) error {
	if a.remote != nil {
		if err := a.remote.Delete(ctx, filename); err != nil {
			a.log.Warn("remote delete failed", zap.String("filename", filename), zap.Error(err))
		}
	}
	return a.local.Delete(ctx, filename)
}

// Usage reports the local tier's footprint. The remote store is metered by
// its own provider and is not inspected here.
func (a *Adapter) Usage(ctx context.Context) (model.StorageUsage, error) {
	return a.local.Usage(ctx)
}

// probePublic checks whether a same-named resource is reachable at the
// conventional public path and plausibly is a PDF. SPA hosts answer every
// path with the index page, so tiny or text/markup responses are rejected.
func (a *Adapter) probePublic(ctx context.Context, filename string) *FetchResult {
	if a.publicBaseURL == "" {
		return nil
	}
	url := a.publicBaseURL + "/" + filename

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "text/plain") {
		a.log.Debug("public path served markup, ignoring",
			zap.String("url", url), zap.String("content_type", contentType))
		return nil
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n < publicSizeFloor {
			a.log.Debug("public path content too small, ignoring",
				zap.String("url", url), zap.Int64("size", n))
			return nil
		}
	}

	data, err := a.download(ctx, url)
	if err != nil {
		a.log.Warn("public path download failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	return &FetchResult{Success: true, URL: url, Blob: data, Storage: KindPublic}
}

func (a *Adapter) fetchRemote(ctx context.Context, filename string) *FetchResult {
	rc, _, err := a.remote.Get(ctx, filename)
	if err != nil {
		a.log.Debug("remote fetch missed", zap.String("filename", filename), zap.Error(err))
		return nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		a.log.Warn("remote read failed", zap.String("filename", filename), zap.Error(err))
		return nil
	}
	url, err := a.remote.PresignGet(ctx, filename, presignExpiry)
	if err != nil {
		a.log.Warn("presign failed", zap.String("filename", filename), zap.Error(err))
	}
	return &FetchResult{Success: true, URL: url, Blob: data, Storage: KindRemote}
}

func (a *Adapter) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &downloadError{url: url, status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

type downloadError struct {
	url    string
	status int
}

func (e *downloadError) Error() string {
	return "download " + e.url + ": status " + strconv.Itoa(e.status)
}
