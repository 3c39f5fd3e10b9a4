package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/repository"
)

var docCols = []string{
	"id", "filename", "generated_at", "nome", "cognome", "email", "telefono",
	"data_nascita", "luogo_nascita", "codice_fiscale", "indirizzo", "citta", "cap", "provincia",
	"size", "content_type", "tags",
}

func testDoc() *model.GeneratedDocument {
	return &model.GeneratedDocument{
		ID:          "doc_1741618800000_abc123",
		Filename:    "FederKombat_Mario_Rossi_2025-03-10_abc123.pdf",
		GeneratedAt: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
		UserData: model.UserData{
			Nome:          "Mario",
			Cognome:       "Rossi",
			Email:         "mario.rossi@example.com",
			Telefono:      "3331234567",
			DataNascita:   "1990-05-12",
			LuogoNascita:  "Milano",
			CodiceFiscale: "RSSMRA90E12F205X",
			Indirizzo:     "Via Roma 1",
			Citta:         "Milano",
			CAP:           "20100",
			Provincia:     "MI",
		},
		Size:        123456,
		ContentType: "application/pdf",
		Tags:        []string{"iscrizione"},
	}
}

func docRow(doc *model.GeneratedDocument) *sqlmock.Rows {
	return sqlmock.NewRows(docCols).AddRow(
		doc.ID, doc.Filename, doc.GeneratedAt.UTC().Format(time.RFC3339),
		doc.UserData.Nome, doc.UserData.Cognome, doc.UserData.Email, doc.UserData.Telefono,
		doc.UserData.DataNascita, doc.UserData.LuogoNascita, doc.UserData.CodiceFiscale,
		doc.UserData.Indirizzo, doc.UserData.Citta, doc.UserData.CAP, doc.UserData.Provincia,
		doc.Size, doc.ContentType, `["iscrizione"]`,
	)
}

func TestDocumentSqlite_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	doc := testDoc()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID, doc.Filename, "2025-03-10T15:00:00Z",
			doc.UserData.Nome, doc.UserData.Cognome, doc.UserData.Email, doc.UserData.Telefono,
			doc.UserData.DataNascita, doc.UserData.LuogoNascita, doc.UserData.CodiceFiscale,
			doc.UserData.Indirizzo, doc.UserData.Citta, doc.UserData.CAP, doc.UserData.Provincia,
			doc.Size, doc.ContentType, `["iscrizione"]`,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_SubscribeEmitsCurrentMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE (.+) ORDER BY generated_at DESC").
		WithArgs("%ross%").
		WillReturnRows(docRow(testDoc()))

	sub, err := repo.Subscribe(context.Background(), model.SearchFilter{Cognome: "ross"})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case docs := <-sub.C:
		require.Len(t, docs, 1)
		assert.Equal(t, testDoc().ID, docs[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected the current result set on subscribe")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_InsertRefreshesSubscribers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(sqlmock.NewRows(docCols))

	sub, err := repo.Subscribe(context.Background(), model.SearchFilter{})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	assert.Empty(t, <-sub.C)

	doc := testDoc()
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// The mutation re-runs the subscriber's query.
	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(docRow(doc))

	require.NoError(t, repo.Insert(context.Background(), doc))

	select {
	case docs := <-sub.C:
		require.Len(t, docs, 1)
		assert.Equal(t, doc.ID, docs[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected a refreshed result set after insert")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_SubscriberKeepsLatestSnapshotOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(docRow(testDoc()))

	sub, err := repo.Subscribe(context.Background(), model.SearchFilter{})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	// The initial snapshot is deliberately left unread; each refresh must
	// replace whatever is still queued.
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(docRow(testDoc()))
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(sqlmock.NewRows(docCols))

	require.NoError(t, repo.Delete(context.Background(), "first"))
	require.NoError(t, repo.Delete(context.Background(), "second"))

	docs := <-sub.C
	assert.Empty(t, docs)
	select {
	case extra := <-sub.C:
		t.Fatalf("unexpected extra snapshot %v", extra)
	default:
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_UnsubscribeIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
		WillReturnRows(sqlmock.NewRows(docCols))

	sub, err := repo.Subscribe(context.Background(), model.SearchFilter{})
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()

	// The queued initial snapshot is still readable, then the channel closes.
	_, open := <-sub.C
	assert.True(t, open)
	_, open = <-sub.C
	assert.False(t, open)
}

func TestDocumentSqlite_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		want := testDoc()
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(want.ID).
			WillReturnRows(docRow(want))

		got, err := repo.FindByID(ctx, want.ID)

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	ctx := context.Background()

	t.Run("empty filter lists everything", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY generated_at DESC").
			WillReturnRows(docRow(testDoc()))

		docs, err := repo.Search(ctx, model.SearchFilter{})

		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("name and date range combined", func(t *testing.T) {
		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE (.+) ORDER BY generated_at DESC").
			WithArgs("%ross%", "2025-03-01T00:00:00Z", "2025-03-31T23:59:59Z").
			WillReturnRows(docRow(testDoc()))

		docs, err := repo.Search(ctx, model.SearchFilter{
			Cognome:  "ross",
			DateFrom: from,
			DateTo:   to,
		})

		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("no match yields empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE (.+)").
			WithArgs("%nessuno%").
			WillReturnRows(sqlmock.NewRows(docCols))

		docs, err := repo.Search(ctx, model.SearchFilter{Nome: "nessuno"})

		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("doc_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "doc_1"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_UpdateTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET tags").
			WithArgs(`["agonista","2025"]`, "doc_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateTags(ctx, "doc_1", []string{"agonista", "2025"}))
	})

	t.Run("nil tags stored as empty list", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET tags").
			WithArgs(`[]`, "doc_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateTags(ctx, "doc_1", nil))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET tags").
			WithArgs(`[]`, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateTags(ctx, "missing", nil), repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSqlite_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSqlite(db)
	repo.now = func() time.Time {
		return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	}

	rows := sqlmock.NewRows([]string{"total", "total_size", "today", "week", "month"}).
		AddRow(12, 4096000, 2, 5, 9)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("2025-03-10T00:00:00Z", "2025-03-03T15:00:00Z", "2025-03-01T00:00:00Z").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &model.DocumentStats{
		Total:     12,
		Today:     2,
		ThisWeek:  5,
		ThisMonth: 9,
		TotalSize: 4096000,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
