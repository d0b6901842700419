package app

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"pdfphrase/config"
)

// picker asks the user for documents to search.
type picker func(ctx context.Context) ([]string, error)

// opener shows a generated file to the user.
type opener func(path string) error

// zenityPicker opens a desktop multi-file dialog. A cancelled dialog yields
// no paths and no error.
func zenityPicker(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "zenity",
		"--file-selection",
		"--title=Select PDF files to analyse",
		"--file-filter=PDF files | *.pdf",
		"--multiple",
		"--separator=\n",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("file picker: %w", err)
	}
	return parseSelection(string(out)), nil
}

// parseSelection keeps the .pdf lines of a newline-separated selection.
func parseSelection(out string) []string {
	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if config.IsPDF(line) {
			paths = append(paths, line)
		}
	}
	return paths
}

// xdgOpen hands the file to the desktop's default viewer without waiting.
func xdgOpen(path string) error {
	cmd := exec.Command("xdg-open", path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
