// Copyright 2026 Chalkpath Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
)

const defaultUserAgent = "ragmill/1.0"

// defaultWebClasses are the HTML class names treated as the semantic
// content regions of a fetched page. Everything outside them is noise.
var defaultWebClasses = []string{"post-content", "post-title", "post-header"}

var textExtensions = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".text": {},
}

// SourceKind classifies an ingestion source string.
type SourceKind int

const (
	// SourceKindFile is a path on the local filesystem.
	SourceKindFile SourceKind = iota + 1
	// SourceKindWeb is an http or https URL.
	SourceKindWeb
)

// DetectSourceKind classifies a source string as a web URL or a local
// file path. Anything that does not parse as an http(s) URL is a file.
func DetectSourceKind(source string) SourceKind {
	u, err := url.Parse(source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return SourceKindWeb
	}
	return SourceKindFile
}

// Loader reads documents from local files and web pages, computing a
// source hash for each and consulting the ingestion ledger so that
// already-processed sources are skipped before any expensive work.
type Loader struct {
	ledger     storage.Ledger
	client     *http.Client
	webClasses []string
	userAgent  string
	logger     *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithWebClasses overrides the HTML class names used to locate the
// content regions of a web page.
func WithWebClasses(classes []string) LoaderOption {
	return func(l *Loader) error {
		if len(classes) == 0 {
			return fmt.Errorf("%w: web classes cannot be empty", core.ErrInvalidInput)
		}
		l.webClasses = classes
		return nil
	}
}

// WithHTTPClient overrides the HTTP client used for web sources.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) error {
		if client == nil {
			return fmt.Errorf("%w: http client cannot be nil", core.ErrInvalidInput)
		}
		l.client = client
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent on web fetches.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) error {
		l.userAgent = ua
		return nil
	}
}

// NewLoader creates a Loader backed by the given ingestion ledger.
func NewLoader(ledger storage.Ledger, opts ...LoaderOption) (*Loader, error) {
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	l := &Loader{
		ledger:     ledger,
		client:     &http.Client{Timeout: 30 * time.Second},
		webClasses: defaultWebClasses,
		userAgent:  defaultUserAgent,
		logger:     slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load reads a source and returns its documents together with the
// source hash. The skipped flag is true when the ledger already records
// a successful ingestion for the same hash; in that case no documents
// are returned and nothing was read beyond what hashing required.
func (l *Loader) Load(ctx context.Context, source string) (docs []core.Document, sourceHash string, skipped bool, err error) {
	switch DetectSourceKind(source) {
	case SourceKindWeb:
		return l.loadWeb(ctx, source)
	default:
		return l.loadFile(ctx, source)
	}
}

func (l *Loader) loadFile(ctx context.Context, path string) ([]core.Document, string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", false, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
		}
		return nil, "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, "", false, fmt.Errorf("%w: %s is a directory", core.ErrInvalidInput, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := textExtensions[ext]; !ok {
		return nil, "", false, fmt.Errorf("%w: %s", core.ErrUnsupportedType, ext)
	}

	sourceHash, err := core.HashFile(path)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	skip, err := l.alreadyIngested(ctx, sourceHash)
	if err != nil {
		return nil, "", false, err
	}
	if skip {
		l.logger.Info("source unchanged, skipping", "path", path, "hash", core.ShortHash(sourceHash))
		return nil, sourceHash, true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	loaded, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to load %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	title := strings.TrimSuffix(filepath.Base(path), ext)

	docs := make([]core.Document, 0, len(loaded))
	for _, d := range loaded {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		docs = append(docs, core.Document{
			Content: d.PageContent,
			Metadata: map[string]string{
				core.MetaSourcePath: absPath,
				core.MetaDocType:    core.DocTypeText,
				core.MetaTitle:      title,
			},
		})
	}

	l.logger.Debug("loaded file source", "path", absPath, "documents", len(docs))
	return docs, sourceHash, false, nil
}

func (l *Loader) loadWeb(ctx context.Context, pageURL string) ([]core.Document, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %s", core.ErrInvalidInput, pageURL)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", false, fmt.Errorf("%w: %s", core.ErrSourceNotFound, pageURL)
	}
	if resp.StatusCode >= 400 {
		return nil, "", false, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	text, err := extractTextByClasses(bytes.NewReader(body), l.webClasses)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	// Hash the extracted content rather than the raw page so that
	// markup noise (timestamps, counters) does not defeat dedup.
	sourceHash := core.HashBytes([]byte(text))

	skip, err := l.alreadyIngested(ctx, sourceHash)
	if err != nil {
		return nil, "", false, err
	}
	if skip {
		l.logger.Info("source unchanged, skipping", "url", pageURL, "hash", core.ShortHash(sourceHash))
		return nil, sourceHash, true, nil
	}

	var docs []core.Document
	if strings.TrimSpace(text) != "" {
		docs = append(docs, core.Document{
			Content: text,
			Metadata: map[string]string{
				core.MetaSourcePath: pageURL,
				core.MetaDocType:    core.DocTypeWebPage,
				core.MetaTitle:      titleFromURL(pageURL),
			},
		})
	}

	l.logger.Debug("loaded web source", "url", pageURL, "documents", len(docs))
	return docs, sourceHash, false, nil
}

// alreadyIngested reports whether the ledger records a successful
// ingestion for the hash. Failed and in-flight records do not count.
func (l *Loader) alreadyIngested(ctx context.Context, sourceHash string) (bool, error) {
	record, err := l.ledger.Lookup(ctx, sourceHash)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup failed: %w", err)
	}
	return record.Status == core.StatusSuccess, nil
}

// titleFromURL derives a page title from the last path segment of the
// URL, falling back to the full URL when the path is empty.
func titleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	segment := filepath.Base(strings.TrimSuffix(u.Path, "/"))
	if segment == "" || segment == "." || segment == "/" {
		return pageURL
	}
	return segment
}
