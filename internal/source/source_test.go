package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/booklets/internal/filetype"
	"github.com/local/booklets/internal/storage"
)

func TestOpenRejectsNonPDF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(p, []byte("plain text, not a pdf"), 0o644))

	r := NewResolver(storage.Options{})
	_, err := r.Open(context.Background(), "file://"+p)
	assert.ErrorIs(t, err, filetype.ErrNotPDF)
}

func TestOpenHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(storage.Options{})
	r.HTTP = srv.Client()
	_, err := r.Open(context.Background(), srv.URL+"/doc.pdf")
	assert.ErrorContains(t, err, "http 404")
}

func TestOpenHTTPDownloadIsRemovedOnReject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	before, _ := filepath.Glob(filepath.Join(os.TempDir(), "bookletdl-*.pdf"))
	r := NewResolver(storage.Options{})
	_, err := r.Open(context.Background(), srv.URL)
	assert.ErrorIs(t, err, filetype.ErrNotPDF)
	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "bookletdl-*.pdf"))
	assert.Len(t, after, len(before))
}

func TestOpenInvalidS3URL(t *testing.T) {
	r := NewResolver(storage.Options{})
	_, err := r.Open(context.Background(), "s3://bucket-only")
	assert.ErrorContains(t, err, "invalid s3 url")
}

func TestCleanupDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	for _, name := range []string{"bookletdl-1.pdf", "s3pdf-2.pdf", "keep.pdf", "bookletdl-fresh.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "booklet-work-3"), 0o755))
	for _, name := range []string{"bookletdl-1.pdf", "s3pdf-2.pdf", "keep.pdf", "booklet-work-3"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, name), old, old))
	}

	assert.Equal(t, 3, cleanupDir(dir, time.Hour, now))
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(left))
	for _, e := range left {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"keep.pdf", "bookletdl-fresh.pdf"}, names)
}
