package config

import (
	"path/filepath"
	"strings"

	"pdfphrase/search"
)

// MaxWorkersCeiling caps the worker pool regardless of detected cores
const MaxWorkersCeiling = search.MaxWorkersCeiling

// MinChunkPages is the smallest page range handed to a single worker
const MinChunkPages = 10

// DocumentTypes defines the file extensions that can be searched
var DocumentTypes = []string{
	"pdf",
	"txt", "md",
	"eml", "mbox",
	"doc",
}

// IsPDF reports whether the file looks like a PDF by extension
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// OptimalWorkers returns the default worker pool size, the same one the
// search dispatchers use when no worker count is configured.
func OptimalWorkers() int {
	return search.OptimalWorkers()
}

// ChunkSize returns the number of pages per chunk for a document so that
// every core gets roughly two chunks, with a floor of MinChunkPages.
func ChunkSize(totalPages, cpus int) int {
	if cpus < 1 {
		cpus = 1
	}
	return max(MinChunkPages, totalPages/(cpus*2))
}

// PageRanges partitions [0, totalPages) into contiguous [start, end) ranges
// of at most size pages. The last range is clamped to totalPages.
func PageRanges(totalPages, size int) [][2]int {
	if totalPages <= 0 {
		return nil
	}
	if size <= 0 {
		size = MinChunkPages
	}
	ranges := make([][2]int, 0, (totalPages+size-1)/size)
	for start := 0; start < totalPages; start += size {
		ranges = append(ranges, [2]int{start, min(start+size, totalPages)})
	}
	return ranges
}

// GetFileTypeDescription returns a human-readable description of searchable types
func GetFileTypeDescription() string {
	return "documents (" + strings.Join(DocumentTypes, ", ") + ")"
}
