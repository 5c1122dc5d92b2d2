package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// fileHashBlockSize is the block size used when streaming file content
// through the hasher, so whole files are never held in memory for hashing.
const fileHashBlockSize = 4096

// contentHashKeys is the restricted metadata subset folded into a chunk's
// dedup hash. chunk_index is deliberately excluded: including it would
// defeat re-ingestion dedup whenever chunk boundaries shift.
var contentHashKeys = []string{MetaSourcePath, MetaTitle, MetaSummary}

// HashFile computes the SHA-256 hex digest of a file's raw bytes, streamed
// in fixed-size blocks.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, fileHashBlockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-256 hex digest of in-memory content. Used for
// web sources, where pre-fetch hashing is impossible.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ContentHash computes the dedup key for a chunk: the SHA-256 hex digest of
// the chunk text concatenated with a canonical (sorted-key) JSON encoding of
// the {source_path, title, summary} metadata subset. Identical content and
// metadata across re-ingestions yield the same hash regardless of position.
func ContentHash(chunk *Chunk) string {
	subset := make(map[string]string, len(contentHashKeys))
	for _, k := range contentHashKeys {
		if v, ok := chunk.Metadata[k]; ok {
			subset[k] = v
		}
	}
	return HashBytes([]byte(chunk.Content + "|" + canonicalJSON(subset)))
}

// ChunkID derives the stable external key used for upsert and delete in the
// chunk store. Unchanged content at the same index reproduces the same id;
// changed content produces a new one, orphaning the old entry unless the
// source's chunks are purged first.
func ChunkID(sourcePath string, chunkIndex int, contentHash string) string {
	combined := sourcePath + "|" + strconv.Itoa(chunkIndex) + "|" + contentHash
	return HashBytes([]byte(combined))
}

// canonicalJSON encodes a string map as a JSON object with sorted keys.
// encoding/json already sorts map keys, but the encoding is spelled out here
// so the hash input format is explicit and locked down.
func canonicalJSON(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		out = append(out, kb...)
		out = append(out, ':')
		out = append(out, vb...)
	}
	out = append(out, '}')
	return string(out)
}

// ShortHash returns the first 12 characters of a hex digest for logging.
func ShortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return fmt.Sprintf("%s…", h[:12])
}
