// Package badger implements storage.ChunkStore on BadgerDB.
//
// The vector collection is a flat keyspace of mus-encoded chunk entries plus
// a source-path index for purging a source's chunks in one pass. Nearest
// neighbor queries are exact: a prefix scan ranked by cosine similarity.
package badger
