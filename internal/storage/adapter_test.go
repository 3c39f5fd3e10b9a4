package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/storage"
	"github.com/florinivan/asdallinkickboxing/internal/storage/mocks"
)

func newTestLocal(t *testing.T) *storage.LocalStore {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir(), 0, zap.NewNop())
	require.NoError(t, err)
	return local
}

func pdfBytes(n int) []byte {
	return bytes.Repeat([]byte("%PDF"), n/4+1)[:n]
}

func TestAdapterSaveRemoteSuccess(t *testing.T) {
	remote := new(mocks.MockObjectStore)
	local := newTestLocal(t)
	a := storage.NewAdapter(remote, local, "", zap.NewNop())
	content := pdfBytes(100)

	remote.On("Put", mock.Anything, "doc.pdf", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "doc.pdf", Size: 100}, nil)
	remote.On("PresignGet", mock.Anything, "doc.pdf", mock.Anything).
		Return("https://bucket/doc.pdf?sig", nil)

	res, err := a.Save(context.Background(), "doc.pdf", content)

	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Size)
	assert.Equal(t, "https://bucket/doc.pdf?sig", res.URL)
	remote.AssertExpectations(t)

	// Nothing must land in the local tier on a successful upload.
	assert.False(t, local.Get(context.Background(), "doc.pdf").Success)
}

func TestAdapterSaveFallsBackToLocal(t *testing.T) {
	remote := new(mocks.MockObjectStore)
	local := newTestLocal(t)
	a := storage.NewAdapter(remote, local, "", zap.NewNop())
	content := pdfBytes(100)

	remote.On("Put", mock.Anything, "doc.pdf", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("connection refused"))

	res, err := a.Save(context.Background(), "doc.pdf", content)

	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Size)

	got := local.Get(context.Background(), "doc.pdf")
	assert.True(t, got.Success)
	assert.Equal(t, content, got.Blob)
}

func TestAdapterSaveLocalOnly(t *testing.T) {
	local := newTestLocal(t)
	a := storage.NewAdapter(nil, local, "", zap.NewNop())

	res, err := a.Save(context.Background(), "doc.pdf", pdfBytes(64))

	require.NoError(t, err)
	assert.Equal(t, int64(64), res.Size)
	assert.True(t, local.Get(context.Background(), "doc.pdf").Success)
}

func TestAdapterGetPublicPath(t *testing.T) {
	content := pdfBytes(20000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	a := storage.NewAdapter(nil, newTestLocal(t), srv.URL+"/documents", zap.NewNop())

	got := a.Get(context.Background(), "doc.pdf")

	assert.True(t, got.Success)
	assert.Equal(t, storage.KindPublic, got.Storage)
	assert.Equal(t, srv.URL+"/documents/doc.pdf", got.URL)
	assert.Equal(t, content, got.Blob)
}

func TestAdapterGetRejectsSPAIndexPage(t *testing.T) {
	// SPA hosting answers every unknown path with the HTML index page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html>"))
	}))
	defer srv.Close()

	local := newTestLocal(t)
	content := pdfBytes(128)
	_, err := local.Save(context.Background(), "doc.pdf", content)
	require.NoError(t, err)

	a := storage.NewAdapter(nil, local, srv.URL+"/documents", zap.NewNop())

	got := a.Get(context.Background(), "doc.pdf")

	assert.True(t, got.Success)
	assert.Equal(t, storage.KindLocal, got.Storage)
	assert.Equal(t, content, got.Blob)
}

func TestAdapterGetRejectsTinyPublicContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "120")
		_, _ = w.Write(pdfBytes(120))
	}))
	defer srv.Close()

	a := storage.NewAdapter(nil, newTestLocal(t), srv.URL+"/documents", zap.NewNop())

	got := a.Get(context.Background(), "doc.pdf")

	assert.False(t, got.Success)
	assert.Equal(t, storage.KindLocal, got.Storage)
}

func TestAdapterGetRemote(t *testing.T) {
	remote := new(mocks.MockObjectStore)
	content := pdfBytes(256)

	remote.On("Get", mock.Anything, "doc.pdf").
		Return(io.NopCloser(bytes.NewReader(content)), storage.ObjectInfo{Key: "doc.pdf", Size: 256}, nil)
	remote.On("PresignGet", mock.Anything, "doc.pdf", mock.Anything).
		Return("https://bucket/doc.pdf?sig", nil)

	a := storage.NewAdapter(remote, newTestLocal(t), "", zap.NewNop())

	got := a.Get(context.Background(), "doc.pdf")

	assert.True(t, got.Success)
	assert.Equal(t, storage.KindRemote, got.Storage)
	assert.Equal(t, "https://bucket/doc.pdf?sig", got.URL)
	assert.Equal(t, content, got.Blob)
	remote.AssertExpectations(t)
}

func TestAdapterGetRemoteMissFallsBackToLocal(t *testing.T) {
	remote := new(mocks.MockObjectStore)
	remote.On("Get", mock.Anything, "doc.pdf").
		Return(nil, storage.ObjectInfo{}, errors.New("NoSuchKey"))

	local := newTestLocal(t)
	content := pdfBytes(64)
	_, err := local.Save(context.Background(), "doc.pdf", content)
	require.NoError(t, err)

	a := storage.NewAdapter(remote, local, "", zap.NewNop())

	got := a.Get(context.Background(), "doc.pdf")

	assert.True(t, got.Success)
	assert.Equal(t, storage.KindLocal, got.Storage)
}

func TestAdapterGetNowhere(t *testing.T) {
	a := storage.NewAdapter(nil, newTestLocal(t), "", zap.NewNop())

	got := a.Get(context.Background(), "ghost.pdf")

	assert.False(t, got.Success)
	assert.Equal(t, storage.ErrNotFound.Error(), got.Error)
}

func TestAdapterUsageCoversLocalTier(t *testing.T) {
	local := newTestLocal(t)
	_, err := local.Save(context.Background(), "doc.pdf", pdfBytes(64))
	require.NoError(t, err)

	a := storage.NewAdapter(new(mocks.MockObjectStore), local, "", zap.NewNop())

	usage, err := a.Usage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, usage.Files)
	assert.Positive(t, usage.TotalBytes)
	assert.Zero(t, usage.CorruptFiles)
}

func TestAdapterDeleteRemoteFailureStillClearsLocal(t *testing.T) {
	remote := new(mocks.MockObjectStore)
	remote.On("Delete", mock.Anything, "doc.pdf").Return(errors.New("network down"))

	local := newTestLocal(t)
	_, err := local.Save(context.Background(), "doc.pdf", pdfBytes(32))
	require.NoError(t, err)

	a := storage.NewAdapter(remote, local, "", zap.NewNop())

	assert.NoError(t, a.Delete(context.Background(), "doc.pdf"))
	assert.False(t, local.Get(context.Background(), "doc.pdf").Success)
	remote.AssertExpectations(t)
}
