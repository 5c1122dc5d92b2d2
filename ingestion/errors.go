package ingestion

import "errors"

var (
	// ErrChunkStoreRequired is returned when a pipeline is built without a chunk store.
	ErrChunkStoreRequired = errors.New("chunk store is required")
	// ErrLedgerRequired is returned when a pipeline is built without an ingestion ledger.
	ErrLedgerRequired = errors.New("ingestion ledger is required")
	// ErrProviderRequired is returned when a pipeline is built without an AI provider.
	ErrProviderRequired = errors.New("ai provider is required")
	// ErrEmbedderRequired is returned when an embedding generator is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
	// ErrGeneratorRequired is returned when a postprocessor is built without a generator.
	ErrGeneratorRequired = errors.New("generator is required")
	// ErrInvalidChunkSize is returned when the configured chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrOverlapTooLarge is returned when the chunk overlap is not smaller than the chunk size.
	ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")
	// ErrInvalidMaxAttempts is returned when a retry budget is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	// ErrEmptyResponse is returned when the generator produces no usable output.
	ErrEmptyResponse = errors.New("empty response from generator")
	// ErrMetadataParse is returned when a metadata extraction response cannot be parsed.
	ErrMetadataParse = errors.New("failed to parse metadata response")
)
