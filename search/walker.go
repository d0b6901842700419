package search

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileWalker expands directory arguments into the documents beneath them
type FileWalker struct {
	documentTypes map[string]bool
}

// NewFileWalker creates a walker accepting the given extensions (without dot)
func NewFileWalker(documentTypes []string) *FileWalker {
	fw := &FileWalker{documentTypes: make(map[string]bool, len(documentTypes))}

	// Build document type map for O(1) lookup
	for _, ext := range documentTypes {
		fw.documentTypes["."+strings.ToLower(ext)] = true
	}
	return fw
}

// isValidFileType checks if a file extension is in our target types
func (fw *FileWalker) isValidFileType(path string) bool {
	return fw.documentTypes[strings.ToLower(filepath.Ext(path))]
}

// shouldSkipDir determines if we should skip a directory
func (fw *FileWalker) shouldSkipDir(name string) bool {
	skipDirs := map[string]bool{
		"node_modules": true,
		"__pycache__":  true,
		"vendor":       true,
	}
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// FindFiles returns every matching file under rootPath in lexical order.
// Unreadable entries are skipped.
func (fw *FileWalker) FindFiles(ctx context.Context, rootPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != rootPath && fw.shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if fw.isValidFileType(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ExpandPaths replaces each directory argument with the documents found
// beneath it. Anything else, including paths that do not exist, is passed
// through unchanged so the search can report it. Every argument is kept,
// repeats included, so each given path is searched.
func (fw *FileWalker) ExpandPaths(ctx context.Context, args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			out = append(out, arg)
			continue
		}
		files, err := fw.FindFiles(ctx, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
