package filer

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// HashContent returns the SHA-256 digest of content as a lowercase hex string.
// The digest is the deduplication key for blobs.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashEntries hashes the content of every file entry, using at most workers
// goroutines (GOMAXPROCS when workers <= 0). Directory entries are skipped.
// The result maps relative path to digest.
func HashEntries(entries []Entry, workers int) map[string]string {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	digests := make([]string, len(entries))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		i, e := i, e
		if e.IsDir() {
			continue
		}
		g.Go(func() error {
			digests[i] = HashContent(e.Content)
			return nil
		})
	}
	// Every worker returns nil, so Wait only joins them.
	g.Wait()

	result := make(map[string]string, len(entries))
	for i, e := range entries {
		if e.IsDir() {
			continue
		}
		result[e.RelativePath] = digests[i]
	}
	return result
}

// distinctHashes returns the unique digests of a path->digest map, sorted.
func distinctHashes(byPath map[string]string) []string {
	seen := make(map[string]struct{}, len(byPath))
	hashes := make([]string, 0, len(byPath))
	for _, h := range byPath {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}
