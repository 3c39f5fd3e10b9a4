// Package service orchestrates document generation and archival: it runs
// the form through validation and the PDF filler, then persists metadata
// and binary through the record store and the blob store.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/repository"
	"github.com/florinivan/asdallinkickboxing/internal/storage"
	"github.com/florinivan/asdallinkickboxing/internal/validate"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrFilenameRequired = errors.New("filename is required")
	ErrNotFound         = errors.New("document not found")
)

// ValidationError carries the per-field findings for a rejected form. It
// is returned before any PDF work starts.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

// GenerateResult is the outcome of one generation. PDF always holds the
// final bytes on success; ArchiveWarning is set when the document was
// rendered but could not be (fully) archived, in which case the caller
// should offer the download anyway.
type GenerateResult struct {
	Document       *model.GeneratedDocument `json:"document"`
	PDF            []byte                   `json:"-"`
	ArchiveWarning string                   `json:"archive_warning,omitempty"`
}

// Renderer produces the final PDF bytes for a validated form. Satisfied by
// pdf.Filler.
type Renderer interface {
	Fill(ctx context.Context, form model.FormRecord) ([]byte, error)
}

// DocumentManager is the facade the HTTP layer talks to.
type DocumentManager interface {
	// Generate validates the form, renders the PDF and archives it.
	// Archive failures degrade to a warning; the PDF is still returned.
	Generate(ctx context.Context, form model.FormRecord) (*GenerateResult, error)

	// Get returns a single archived record by ID.
	Get(ctx context.Context, id string) (*model.GeneratedDocument, error)

	// List returns all archived records, newest first.
	List(ctx context.Context) ([]model.GeneratedDocument, error)

	// Search returns the records matching the filter, newest first.
	Search(ctx context.Context, filter model.SearchFilter) ([]model.GeneratedDocument, error)

	// Stats aggregates the archive counters and the local storage
	// footprint.
	Stats(ctx context.Context) (*model.DocumentStats, error)

	// FetchBlob retrieves the binary content stored under a filename.
	FetchBlob(ctx context.Context, filename string) (*storage.FetchResult, error)

	// UpdateTags replaces the tag list of a record.
	UpdateTags(ctx context.Context, id string, tags []string) error

	// Delete removes the record and its blob. The blob goes first so a
	// failed blob delete leaves the record for a manual retry.
	Delete(ctx context.Context, id string) error

	// Subscribe exposes the record store's live view: the current matches
	// for filter followed by a fresh full result set after every change.
	Subscribe(ctx context.Context, filter model.SearchFilter) (*repository.Subscription, error)
}

type documentManager struct {
	filler    Renderer
	repo      repository.DocumentRepository
	blobs     storage.BlobStore
	orgPrefix string
	log       *zap.Logger
	now       func() time.Time
}

// NewDocumentManager constructs the manager. orgPrefix leads every
// generated filename, e.g. "FederKombat".
func NewDocumentManager(filler Renderer, repo repository.DocumentRepository, blobs storage.BlobStore, orgPrefix string, log *zap.Logger) DocumentManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentManager{
		filler:    filler,
		repo:      repo,
		blobs:     blobs,
		orgPrefix: orgPrefix,
		log:       log,
		now:       time.Now,
	}
}

func (m *documentManager) Generate(ctx context.Context, form model.FormRecord) (*GenerateResult, error) {
	now := m.now()

	if errs := validate.FormRecord(form, now); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	pdfBytes, err := m.filler.Fill(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("generate document: %w", err)
	}

	suffix := randomSuffix()
	doc := &model.GeneratedDocument{
		ID:          fmt.Sprintf("doc_%d_%s", now.UnixMilli(), suffix),
		Filename:    m.buildFilename(form, now, suffix),
		GeneratedAt: now.UTC(),
		UserData:    model.Snapshot(form),
		Size:        int64(len(pdfBytes)),
		ContentType: "application/pdf",
		Tags:        []string{},
	}

	res := &GenerateResult{Document: doc, PDF: pdfBytes}

	// Archive failures must not block the download of the rendered PDF.
	if err := m.repo.Insert(ctx, doc); err != nil {
		m.log.Error("metadata insert failed, document not archived",
			zap.String("id", doc.ID), zap.Error(err))
		res.ArchiveWarning = "document generated but not archived"
		return res, nil
	}

	if _, err := m.blobs.Save(ctx, doc.Filename, pdfBytes); err != nil {
		// The metadata row stays behind as an orphan on purpose: it
		// documents that the generation happened and can be retried.
		m.log.Error("blob save failed, metadata row is orphaned",
			zap.String("id", doc.ID),
			zap.String("filename", doc.Filename),
			zap.Error(err))
		if errors.Is(err, storage.ErrQuotaExceeded) {
			res.ArchiveWarning = "document too large for the archive, download it now"
		} else {
			res.ArchiveWarning = "document archived without its content, download it now"
		}
	}
	return res, nil
}

func (m *documentManager) Get(ctx context.Context, id string) (*model.GeneratedDocument, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := m.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (m *documentManager) List(ctx context.Context) ([]model.GeneratedDocument, error) {
	return m.repo.FindAll(ctx)
}

func (m *documentManager) Search(ctx context.Context, filter model.SearchFilter) ([]model.GeneratedDocument, error) {
	return m.repo.Search(ctx, filter)
}

// Stats merges the archive counters with the local blob tier's footprint.
// An unreadable tier costs only the footprint, not the counters.
func (m *documentManager) Stats(ctx context.Context) (*model.DocumentStats, error) {
	stats, err := m.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	usage, err := m.blobs.Usage(ctx)
	if err != nil {
		m.log.Warn("local storage usage unavailable", zap.Error(err))
		return stats, nil
	}
	stats.LocalStorage = &usage
	return stats, nil
}

func (m *documentManager) FetchBlob(ctx context.Context, filename string) (*storage.FetchResult, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	return m.blobs.Get(ctx, filename), nil
}

func (m *documentManager) UpdateTags(ctx context.Context, id string, tags []string) error {
	if id == "" {
		return ErrIDRequired
	}
	err := m.repo.UpdateTags(ctx, id, tags)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (m *documentManager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := m.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := m.blobs.Delete(ctx, doc.Filename); err != nil {
		return fmt.Errorf("delete blob %s: %w", doc.Filename, err)
	}
	if err := m.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (m *documentManager) Subscribe(ctx context.Context, filter model.SearchFilter) (*repository.Subscription, error) {
	return m.repo.Subscribe(ctx, filter)
}

// buildFilename follows the archive convention
// <prefix>_<Nome>_<Cognome>_<YYYY-MM-DD>_<suffix>.pdf with the name parts
// stripped to plain alphanumerics.
func (m *documentManager) buildFilename(form model.FormRecord, now time.Time, suffix string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s.pdf",
		m.orgPrefix,
		sanitizeNamePart(form.Nome),
		sanitizeNamePart(form.Cognome),
		now.Format("2006-01-02"),
		suffix,
	)
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func sanitizeNamePart(s string) string {
	return nonAlnum.ReplaceAllString(s, "")
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
