package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DocumentRecord is one row of document metadata.
type DocumentRecord struct {
	ID               string     `db:"id"`
	Filename         string     `db:"filename"`
	DocumentType     string     `db:"document_type"`
	FileSize         int64      `db:"file_size"`
	UploadDate       time.Time  `db:"upload_date"`
	ProcessingStatus string     `db:"processing_status"`
	ProductFamily    string     `db:"product_family"`
	ProductModel     string     `db:"product_model"`
	Version          string     `db:"version"`
	Language         string     `db:"language"`
	PageCount        int        `db:"page_count"`
}

// QueryLogRecord is one logged query/answer pair.
type QueryLogRecord struct {
	ID          int64     `db:"id"`
	Question    string    `db:"question"`
	UserRole    string    `db:"user_role"`
	Answer      string    `db:"answer"`
	Confidence  float64   `db:"confidence"`
	QueryTimeMs int64     `db:"query_time_ms"`
	ModelUsed   string    `db:"model_used"`
	SourceCount int       `db:"source_count"`
	CreatedAt   time.Time `db:"created_at"`
}

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at '%s': %w", path, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			document_type TEXT NOT NULL DEFAULT 'datasheet',
			file_size INTEGER NOT NULL DEFAULT 0,
			upload_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			processing_status TEXT NOT NULL DEFAULT 'pending',
			product_family TEXT NOT NULL DEFAULT '',
			product_model TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'ko',
			page_count INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS query_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			user_role TEXT NOT NULL,
			answer TEXT NOT NULL,
			confidence REAL NOT NULL,
			query_time_ms INTEGER NOT NULL,
			model_used TEXT NOT NULL DEFAULT '',
			source_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_query_logs_confidence ON query_logs(confidence)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(processing_status)`,
	}

	for _, q := range tables {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDocument inserts or replaces a document metadata row.
func (s *Store) SaveDocument(ctx context.Context, doc *DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, filename, document_type, file_size, upload_date, processing_status,
			 product_family, product_model, version, language, page_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.DocumentType, doc.FileSize, doc.UploadDate,
		doc.ProcessingStatus, doc.ProductFamily, doc.ProductModel, doc.Version,
		doc.Language, doc.PageCount)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// CompletedDocuments returns metadata rows for fully processed documents.
func (s *Store) CompletedDocuments(ctx context.Context) ([]DocumentRecord, error) {
	var docs []DocumentRecord
	err := s.db.SelectContext(ctx, &docs, `
		SELECT id, filename, document_type, file_size, upload_date, processing_status,
		       product_family, product_model, version, language, page_count
		FROM documents
		WHERE processing_status = 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return docs, nil
}

// DocumentsByID returns document rows keyed by id.
func (s *Store) DocumentsByID(ctx context.Context, ids []string) (map[string]DocumentRecord, error) {
	if len(ids) == 0 {
		return map[string]DocumentRecord{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, filename, document_type, file_size, upload_date, processing_status,
		       product_family, product_model, version, language, page_count
		FROM documents WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var docs []DocumentRecord
	if err := s.db.SelectContext(ctx, &docs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query documents by id: %w", err)
	}

	byID := make(map[string]DocumentRecord, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return byID, nil
}

// RecentHighConfidenceQueries returns past Q/A rows above the confidence
// floor, most confident and most recent first.
func (s *Store) RecentHighConfidenceQueries(ctx context.Context, minConfidence float64, limit int) ([]QueryLogRecord, error) {
	var logs []QueryLogRecord
	err := s.db.SelectContext(ctx, &logs, `
		SELECT id, question, user_role, answer, confidence, query_time_ms,
		       model_used, source_count, created_at
		FROM query_logs
		WHERE confidence > ?
		ORDER BY confidence DESC, created_at DESC
		LIMIT ?`, minConfidence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return logs, nil
}

// AppendQueryLog records a served query. Callers treat failures as
// best-effort and must not surface them.
func (s *Store) AppendQueryLog(ctx context.Context, rec *QueryLogRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_logs
			(question, user_role, answer, confidence, query_time_ms, model_used, source_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Question, rec.UserRole, rec.Answer, rec.Confidence, rec.QueryTimeMs,
		rec.ModelUsed, rec.SourceCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append query log: %w", err)
	}
	return nil
}
