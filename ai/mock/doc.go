// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mock embedder derives stable pseudo-random vectors from text content,
// so tests get reproducible similarity behavior without a model server. The
// mock generator replays canned responses or injected functions.
package mock
