package ingestion

import "github.com/chalkpath/ragmill/core"

// Monitor provides hooks to observe the ingestion process.
// Implement this interface to track intermediate steps while sources
// move through the pipeline.
type Monitor interface {
	Start(source string)
	Skipped(source string)
	Loaded(source string, documents int)
	Split(source string, chunks int)
	Postprocessed(source string, chunks int)
	Embedded(source string, newEmbeddings, reused int)
	Stored(source string, chunks int)
	Recorded(source string, status core.IngestionStatus, chunks int)
	Failed(source string, err error)
	Finish(totalChunks int)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                  {}
func (n *noopMonitor) Skipped(_ string)                                {}
func (n *noopMonitor) Loaded(_ string, _ int)                          {}
func (n *noopMonitor) Split(_ string, _ int)                           {}
func (n *noopMonitor) Postprocessed(_ string, _ int)                   {}
func (n *noopMonitor) Embedded(_ string, _, _ int)                     {}
func (n *noopMonitor) Stored(_ string, _ int)                          {}
func (n *noopMonitor) Recorded(_ string, _ core.IngestionStatus, _ int) {}
func (n *noopMonitor) Failed(_ string, _ error)                        {}
func (n *noopMonitor) Finish(_ int)                                    {}
