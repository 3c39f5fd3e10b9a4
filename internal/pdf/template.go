package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrTemplateLoad marks a fatal failure to fetch or parse the source
// template. It is the only error kind Fill propagates to the caller.
var ErrTemplateLoad = errors.New("template load failed")

// minTemplatePages is the page count the coordinate overlay expects. A
// shorter template skips the overlay pass instead of failing the fill.
const minTemplatePages = 6

// TemplateSource provides the fixed source template bytes. Fill loads the
// template once per call.
type TemplateSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileTemplate reads the template from the local filesystem.
type FileTemplate struct {
	Path string
}

func (t FileTemplate) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTemplateLoad, t.Path, err)
	}
	return data, nil
}

// HTTPTemplate fetches the template from a well-known URL.
type HTTPTemplate struct {
	URL    string
	Client *http.Client
}

func (t HTTPTemplate) Load(ctx context.Context) ([]byte, error) {
	cli := t.Client
	if cli == nil {
		cli = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrTemplateLoad, t.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrTemplateLoad, t.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTemplateLoad, err)
	}
	return data, nil
}

// BytesTemplate serves an in-memory template. Used by tests and by callers
// that already hold the bytes.
type BytesTemplate []byte

func (t BytesTemplate) Load(_ context.Context) ([]byte, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrTemplateLoad)
	}
	return t, nil
}

// PageCount parses the template enough to count its pages.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return n, nil
}
