package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeseed/exams-tw/internal/catalog"
	"github.com/freeseed/exams-tw/internal/examstore"
)

// fakeFetcher writes a tiny PDF for known urls and fails for the rest.
type fakeFetcher struct {
	ok    map[string]bool
	calls []string
}

func (f *fakeFetcher) Download(_ context.Context, url, dest string) error {
	f.calls = append(f.calls, url)
	if !f.ok[url] {
		return errors.New("404")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("%PDF-1.4"), 0o644)
}

func TestCatalogIngestorRun(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{QuestionBank: filepath.Join(dir, "bank"), QuestionJSON: filepath.Join(dir, "json")}
	fetcher := &fakeFetcher{ok: map[string]bool{"q1": true, "a1": true, "a3": true}}

	rows := []catalog.Row{
		{ExamCode: "101", CategoryCode: "1", Session: "1", QuestionURL: "q1", AnswerURL: "a1", Subject: "國文"},
		{ExamCode: "101", CategoryCode: "2", Session: "1", QuestionURL: "q2", AnswerURL: "a2"},
		{ExamCode: "101", CategoryCode: "3", Session: "2", QuestionURL: "q3", AnswerURL: "a3"},
		{ExamCode: "101", CategoryCode: "4", Session: "2"},
	}

	ing := NewCatalogIngestor(cfg, fetcher, catalog.NewSequence(1), nil)
	rep, err := ing.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 2, rep.Written)
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, 3, rep.Downloaded)
	assert.Equal(t, 3, rep.DownloadFailures)
	assert.Equal(t, "fse00000001", rep.FirstID)
	assert.Equal(t, "fse00000002", rep.LastID)
	assert.Len(t, fetcher.calls, 6)

	first, err := examstore.Load(filepath.Join(cfg.QuestionJSON, "fse00000001.json"))
	require.NoError(t, err)
	assert.Equal(t, "101_1_1_Q.pdf", first.QuestionFileName())
	assert.Equal(t, "101_1_1_A.pdf", first.AnswerFileName())

	// the sequence only advanced for written rows
	second, err := examstore.Load(filepath.Join(cfg.QuestionJSON, "fse00000002.json"))
	require.NoError(t, err)
	assert.Nil(t, second.QuestionFile)
	assert.Equal(t, "101_3_2_A.pdf", second.AnswerFileName())
}

func TestCatalogIngestorSkipExisting(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{QuestionBank: dir, QuestionJSON: filepath.Join(dir, "json"), SkipExisting: true}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9_9_1_Q.pdf"), []byte("%PDF-1.7"), 0o644))
	fetcher := &fakeFetcher{ok: map[string]bool{}}

	rep, err := NewCatalogIngestor(cfg, fetcher, nil, nil).Run(context.Background(),
		[]catalog.Row{{ExamCode: "9", CategoryCode: "9", Session: "1", QuestionURL: "q", AnswerURL: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Written)
	assert.Equal(t, []string{"a"}, fetcher.calls)
}

func TestCatalogIngestorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCatalogIngestor(Config{}, &fakeFetcher{}, nil, nil).Run(ctx, []catalog.Row{{}})
	assert.ErrorIs(t, err, context.Canceled)
}
