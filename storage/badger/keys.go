package badger

import "github.com/chalkpath/ragmill/core"

// Key prefixes for different data types
const (
	chunkEntryPrefix  = "chkent"
	chunkSourcePrefix = "chksrc"
)

// makeChunkKey generates the primary key for a chunk entry.
// Format: prefix:chunkID
func makeChunkKey(id string) []byte {
	return []byte(chunkEntryPrefix + ":" + id)
}

// makeSourceIndexKey generates a composite key for the source-path index.
// The source path is hashed so path contents (colons in URLs, separators)
// can never bleed across key boundaries.
// Format: prefix:sha256(sourcePath):chunkID
func makeSourceIndexKey(sourcePath, id string) []byte {
	return []byte(chunkSourcePrefix + ":" + core.HashBytes([]byte(sourcePath)) + ":" + id)
}

// makePartialSourceIndexKey generates the scan prefix for all index keys of
// one source path.
func makePartialSourceIndexKey(sourcePath string) []byte {
	return []byte(chunkSourcePrefix + ":" + core.HashBytes([]byte(sourcePath)) + ":")
}
