package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
)

// memLedger is an in-memory storage.Ledger for tests.
type memLedger struct {
	mu      sync.Mutex
	records map[string]core.IngestionRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]core.IngestionRecord)}
}

func (l *memLedger) Lookup(_ context.Context, sourceHash string) (*core.IngestionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[sourceHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (l *memLedger) Record(_ context.Context, rec *core.IngestionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.SourceHash] = *rec
	return nil
}

func (l *memLedger) Close() error { return nil }

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectSourceKind(t *testing.T) {
	tests := []struct {
		source string
		want   SourceKind
	}{
		{"http://example.com/page", SourceKindWeb},
		{"https://example.com/page", SourceKindWeb},
		{"/var/data/notes.txt", SourceKindFile},
		{"notes.md", SourceKindFile},
		{"ftp://example.com/file", SourceKindFile},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSourceKind(tt.source), tt.source)
	}
}

func TestLoader_FileNotFound(t *testing.T) {
	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	_, _, _, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}

func TestLoader_DirectoryRejected(t *testing.T) {
	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	_, _, _, err = l.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestLoader_UnsupportedExtension(t *testing.T) {
	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	path := writeTempFile(t, "binary.pdf", "%PDF-1.4")
	_, _, _, err = l.Load(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestLoader_LoadsTextFile(t *testing.T) {
	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	path := writeTempFile(t, "notes.txt", "some important notes")
	docs, sourceHash, skipped, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, core.HashBytes([]byte("some important notes")), sourceHash)

	require.Len(t, docs, 1)
	assert.Equal(t, "some important notes", docs[0].Content)
	assert.Equal(t, core.DocTypeText, docs[0].Metadata[core.MetaDocType])
	assert.Equal(t, "notes", docs[0].Metadata[core.MetaTitle])
	assert.True(t, filepath.IsAbs(docs[0].Metadata[core.MetaSourcePath]))
}

func TestLoader_EmptyFileYieldsNoDocuments(t *testing.T) {
	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	path := writeTempFile(t, "empty.txt", "   \n")
	docs, sourceHash, skipped, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.NotEmpty(t, sourceHash)
	assert.Empty(t, docs)
}

func TestLoader_SkipsSuccessfullyIngestedSource(t *testing.T) {
	ledger := newMemLedger()
	l, err := NewLoader(ledger)
	require.NoError(t, err)

	content := "already seen content"
	path := writeTempFile(t, "seen.txt", content)
	require.NoError(t, ledger.Record(context.Background(), &core.IngestionRecord{
		SourceHash: core.HashBytes([]byte(content)),
		SourcePath: path,
		Status:     core.StatusSuccess,
		ChunkCount: 1,
	}))

	docs, sourceHash, skipped, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Empty(t, docs)
	assert.Equal(t, core.HashBytes([]byte(content)), sourceHash)
}

func TestLoader_FailedRecordDoesNotSkip(t *testing.T) {
	ledger := newMemLedger()
	l, err := NewLoader(ledger)
	require.NoError(t, err)

	content := "previously failed content"
	path := writeTempFile(t, "failed.txt", content)
	require.NoError(t, ledger.Record(context.Background(), &core.IngestionRecord{
		SourceHash: core.HashBytes([]byte(content)),
		SourcePath: path,
		Status:     core.StatusFailed,
	}))

	docs, _, skipped, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, skipped, "failed sources must be retried")
	assert.Len(t, docs, 1)
}

const testPage = `<html><head><title>ignored</title></head><body>
<nav class="menu">Home About Contact</nav>
<h1 class="post-title">The Post Title</h1>
<div class="post-content"><p>First paragraph.</p><p>Second paragraph.</p>
<script>trackVisit()</script></div>
<footer>copyright</footer>
</body></html>`

func TestLoader_LoadsWebPage(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	docs, sourceHash, skipped, err := l.Load(context.Background(), server.URL+"/posts/go-basics")
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.NotEmpty(t, sourceHash)
	assert.Equal(t, defaultUserAgent, gotUA)

	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "The Post Title")
	assert.Contains(t, docs[0].Content, "First paragraph.")
	assert.NotContains(t, docs[0].Content, "Home About Contact")
	assert.NotContains(t, docs[0].Content, "trackVisit")
	assert.Equal(t, core.DocTypeWebPage, docs[0].Metadata[core.MetaDocType])
	assert.Equal(t, "go-basics", docs[0].Metadata[core.MetaTitle])
	assert.Equal(t, server.URL+"/posts/go-basics", docs[0].Metadata[core.MetaSourcePath])
}

func TestLoader_WebPageNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	_, _, _, err = l.Load(context.Background(), server.URL+"/gone")
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}

func TestLoader_WebPageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	_, _, _, err = l.Load(context.Background(), server.URL+"/flaky")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrSourceNotFound)
}

func TestLoader_WebPageWithoutContentRegions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="sidebar">nothing useful</div></body></html>`))
	}))
	defer server.Close()

	l, err := NewLoader(newMemLedger())
	require.NoError(t, err)

	docs, _, skipped, err := l.Load(context.Background(), server.URL+"/bare")
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Empty(t, docs, "pages without content regions yield no documents")
}

func TestLoader_CustomWebClasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><article class="entry">custom region text</article></body></html>`))
	}))
	defer server.Close()

	l, err := NewLoader(newMemLedger(), WithWebClasses([]string{"entry"}))
	require.NoError(t, err)

	docs, _, _, err := l.Load(context.Background(), server.URL+"/custom")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "custom region text", docs[0].Content)
}

func TestNewLoader_Validation(t *testing.T) {
	_, err := NewLoader(nil)
	assert.ErrorIs(t, err, ErrLedgerRequired)

	_, err = NewLoader(newMemLedger(), WithWebClasses(nil))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = NewLoader(newMemLedger(), WithHTTPClient(nil))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/posts/go-basics", "go-basics"},
		{"https://example.com/posts/go-basics/", "go-basics"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com", "https://example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFromURL(tt.url), tt.url)
	}
}
