// Package sqlite implements the document repository on an embedded SQLite
// database. One file on disk holds the whole archive; concurrency is
// handled by database/sql plus WAL journaling at the connection level.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/repository"
)

const docColumns = `id, filename, generated_at, nome, cognome, email, telefono,
	data_nascita, luogo_nascita, codice_fiscale, indirizzo, citta, cap, provincia,
	size, content_type, tags`

// DocumentSqlite is the SQLite implementation of repository.DocumentRepository.
type DocumentSqlite struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// subscriber is one live view: its filter is re-run on every mutation and
// the resulting snapshot replaces whatever is still queued on ch.
type subscriber struct {
	ch     chan []model.GeneratedDocument
	filter model.SearchFilter
}

// NewDocumentSqlite creates a new SQLite-backed repository.
func NewDocumentSqlite(db *sql.DB) *DocumentSqlite {
	return &DocumentSqlite{
		db:   db,
		now:  time.Now,
		subs: make(map[int]*subscriber),
	}
}

var _ repository.DocumentRepository = (*DocumentSqlite)(nil)

// Insert stores a new document record and notifies subscribers.
func (r *DocumentSqlite) Insert(ctx context.Context, doc *model.GeneratedDocument) error {
	const q = `
		INSERT INTO documents (` + docColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Filename,
		encodeTime(doc.GeneratedAt),
		doc.UserData.Nome,
		doc.UserData.Cognome,
		doc.UserData.Email,
		doc.UserData.Telefono,
		doc.UserData.DataNascita,
		doc.UserData.LuogoNascita,
		doc.UserData.CodiceFiscale,
		doc.UserData.Indirizzo,
		doc.UserData.Citta,
		doc.UserData.CAP,
		doc.UserData.Provincia,
		doc.Size,
		doc.ContentType,
		tags,
	)
	if err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

// FindByID fetches a single document record by its ID.
func (r *DocumentSqlite) FindByID(ctx context.Context, id string) (*model.GeneratedDocument, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE id = ?`
	doc, err := scanDoc(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// FindAll returns every record, newest first.
func (r *DocumentSqlite) FindAll(ctx context.Context) ([]model.GeneratedDocument, error) {
	return r.Search(ctx, model.SearchFilter{})
}

// Search returns the records matching the filter, newest first. Name and
// email criteria match as case-insensitive substrings, the date range is
// inclusive on both ends.
func (r *DocumentSqlite) Search(ctx context.Context, filter model.SearchFilter) ([]model.GeneratedDocument, error) {
	var (
		where []string
		args  []any
	)
	like := func(col, value string) {
		where = append(where, col+` LIKE ? COLLATE NOCASE`)
		args = append(args, "%"+value+"%")
	}
	if filter.Nome != "" {
		like("nome", filter.Nome)
	}
	if filter.Cognome != "" {
		like("cognome", filter.Cognome)
	}
	if filter.Email != "" {
		like("email", filter.Email)
	}
	if !filter.DateFrom.IsZero() {
		where = append(where, `generated_at >= ?`)
		args = append(args, encodeTime(filter.DateFrom))
	}
	if !filter.DateTo.IsZero() {
		where = append(where, `generated_at <= ?`)
		args = append(args, encodeTime(filter.DateTo))
	}

	q := `SELECT ` + docColumns + ` FROM documents`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY generated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.GeneratedDocument, 0)
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes a record by ID and notifies subscribers.
func (r *DocumentSqlite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	r.notify(ctx)
	return nil
}

// UpdateTags replaces the tag list of a record and notifies subscribers.
func (r *DocumentSqlite) UpdateTags(ctx context.Context, id string, tags []string) error {
	enc, err := encodeTags(tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET tags = ? WHERE id = ?`, enc, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	r.notify(ctx)
	return nil
}

// Stats aggregates the dashboard counters in one query. The day, week and
// month thresholds are computed on the Go side so the stored RFC3339
// strings compare lexicographically.
func (r *DocumentSqlite) Stats(ctx context.Context) (*model.DocumentStats, error) {
	now := r.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	const q = `
		SELECT
			COUNT(*),
			COALESCE(SUM(size), 0),
			COALESCE(SUM(CASE WHEN generated_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN generated_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN generated_at >= ? THEN 1 ELSE 0 END), 0)
		FROM documents
	`
	var stats model.DocumentStats
	err := r.db.QueryRowContext(ctx, q,
		encodeTime(dayStart), encodeTime(weekStart), encodeTime(monthStart),
	).Scan(&stats.Total, &stats.TotalSize, &stats.Today, &stats.ThisWeek, &stats.ThisMonth)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Subscribe registers a live view over the records matching filter. The
// current matches are queued right away; every later mutation re-runs the
// query and replaces whatever snapshot the consumer has not read yet.
func (r *DocumentSqlite) Subscribe(ctx context.Context, filter model.SearchFilter) (*repository.Subscription, error) {
	docs, err := r.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	ch := make(chan []model.GeneratedDocument, 1)
	ch <- docs
	r.subs[id] = &subscriber{ch: ch, filter: filter}
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
	return repository.NewSubscription(ch, cancel), nil
}

// notify re-runs every subscriber's query after a mutation. Queries run
// outside the lock; a failed re-query skips this round and the next
// mutation retries.
func (r *DocumentSqlite) notify(ctx context.Context) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.mu.Lock()
		sub, ok := r.subs[id]
		r.mu.Unlock()
		if !ok {
			continue
		}
		docs, err := r.Search(ctx, sub.filter)
		if err != nil {
			continue
		}
		r.deliver(id, docs)
	}
}

// deliver queues a snapshot, replacing a stale unread one. Holding the lock
// keeps the send from racing an Unsubscribe close.
func (r *DocumentSqlite) deliver(id int, docs []model.GeneratedDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return
	}
	select {
	case sub.ch <- docs:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- docs:
		default:
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner) (*model.GeneratedDocument, error) {
	var (
		doc         model.GeneratedDocument
		generatedAt string
		tags        string
	)
	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&generatedAt,
		&doc.UserData.Nome,
		&doc.UserData.Cognome,
		&doc.UserData.Email,
		&doc.UserData.Telefono,
		&doc.UserData.DataNascita,
		&doc.UserData.LuogoNascita,
		&doc.UserData.CodiceFiscale,
		&doc.UserData.Indirizzo,
		&doc.UserData.Citta,
		&doc.UserData.CAP,
		&doc.UserData.Provincia,
		&doc.Size,
		&doc.ContentType,
		&tags,
	)
	if err != nil {
		return nil, err
	}
	doc.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at %q: %w", generatedAt, err)
	}
	if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
		return nil, fmt.Errorf("parse tags %q: %w", tags, err)
	}
	return &doc, nil
}

// encodeTime stores timestamps as UTC RFC3339 strings so that range
// comparisons work lexicographically in SQL.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
