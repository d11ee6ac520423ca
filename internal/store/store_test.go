package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument(id, status string) *DocumentRecord {
	return &DocumentRecord{
		ID:               id,
		Filename:         id + "_datasheet.pdf",
		DocumentType:     "datasheet",
		FileSize:         1024,
		UploadDate:       time.Now().UTC(),
		ProcessingStatus: status,
		ProductFamily:    "DDR5",
		ProductModel:     "K4RAH086VB",
		Version:          "1.2",
		Language:         "ko",
		PageCount:        42,
	}
}

func TestSaveAndLoadDocuments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, sampleDocument("doc-1", "completed")))
	require.NoError(t, s.SaveDocument(ctx, sampleDocument("doc-2", "pending")))

	docs, err := s.CompletedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "DDR5", docs[0].ProductFamily)
	assert.Equal(t, 42, docs[0].PageCount)
}

func TestSaveDocumentReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, sampleDocument("doc-1", "pending")))

	updated := sampleDocument("doc-1", "completed")
	updated.Version = "2.0"
	require.NoError(t, s.SaveDocument(ctx, updated))

	docs, err := s.CompletedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2.0", docs[0].Version)
}

func TestDocumentsByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, sampleDocument("doc-1", "completed")))
	require.NoError(t, s.SaveDocument(ctx, sampleDocument("doc-2", "completed")))

	byID, err := s.DocumentsByID(ctx, []string{"doc-1", "doc-3"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "doc-1_datasheet.pdf", byID["doc-1"].Filename)
}

func TestDocumentsByIDEmpty(t *testing.T) {
	s := openTestStore(t)

	byID, err := s.DocumentsByID(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestQueryLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []*QueryLogRecord{
		{Question: "DDR5 전압은?", UserRole: "engineer", Answer: "1.1V입니다", Confidence: 0.9, QueryTimeMs: 120, ModelUsed: "qwen2:0.5b", SourceCount: 3},
		{Question: "NAND 소거 시간은?", UserRole: "quality", Answer: "3ms입니다", Confidence: 0.75, QueryTimeMs: 90, ModelUsed: "qwen2:0.5b", SourceCount: 2},
		{Question: "저품질 질문", UserRole: "sales", Answer: "모름", Confidence: 0.2, QueryTimeMs: 50, ModelUsed: "qwen2:0.5b", SourceCount: 0},
	}
	for _, rec := range records {
		require.NoError(t, s.AppendQueryLog(ctx, rec))
	}

	logs, err := s.RecentHighConfidenceQueries(ctx, 0.7, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Most confident first.
	assert.Equal(t, "DDR5 전압은?", logs[0].Question)
	assert.Equal(t, "NAND 소거 시간은?", logs[1].Question)
	assert.Equal(t, 3, logs[0].SourceCount)
}

func TestRecentHighConfidenceQueriesLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendQueryLog(ctx, &QueryLogRecord{
			Question:   "질문",
			UserRole:   "engineer",
			Answer:     "답변",
			Confidence: 0.9,
		}))
	}

	logs, err := s.RecentHighConfidenceQueries(ctx, 0.7, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestRecentHighConfidenceQueriesFloorIsExclusive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendQueryLog(ctx, &QueryLogRecord{
		Question:   "경계값 질문",
		UserRole:   "engineer",
		Answer:     "답변",
		Confidence: 0.7,
	}))

	logs, err := s.RecentHighConfidenceQueries(ctx, 0.7, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
