package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/ingestion"
)

var (
	okResult   = color.New(color.FgGreen).SprintFunc()
	skipResult = color.New(color.FgYellow).SprintFunc()
	failResult = color.New(color.FgRed).SprintFunc()
)

// progressMonitor prints per-source ingestion progress to the terminal.
type progressMonitor struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ingestion.Monitor = (*progressMonitor)(nil)

func newProgressMonitor(out io.Writer) *progressMonitor {
	return &progressMonitor{out: out}
}

func (m *progressMonitor) printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.out, format+"\n", args...)
}

func (m *progressMonitor) Start(source string) {
	m.printf("processing %s", source)
}

func (m *progressMonitor) Skipped(source string) {
	m.printf("%s %s (unchanged)", skipResult("skip"), source)
}

func (m *progressMonitor) Loaded(string, int) {}

func (m *progressMonitor) Split(source string, chunks int) {
	m.printf("  split into %d chunks", chunks)
}

func (m *progressMonitor) Postprocessed(source string, chunks int) {
	m.printf("  enriched %d chunks", chunks)
}

func (m *progressMonitor) Embedded(source string, newEmbeddings, reused int) {
	if reused > 0 {
		m.printf("  embedded %d chunks (%d reused)", newEmbeddings, reused)
		return
	}
	m.printf("  embedded %d chunks", newEmbeddings)
}

func (m *progressMonitor) Stored(string, int) {}

func (m *progressMonitor) Recorded(source string, status core.IngestionStatus, chunks int) {
	if status == core.StatusSuccess {
		m.printf("%s %s (%d chunks)", okResult("done"), source, chunks)
		return
	}
	m.printf("%s %s recorded as %s", failResult("warn"), source, status)
}

func (m *progressMonitor) Failed(source string, err error) {
	m.printf("%s %s: %v", failResult("fail"), source, err)
}

func (m *progressMonitor) Finish(totalChunks int) {
	m.printf("ingested %d chunks total", totalChunks)
}
