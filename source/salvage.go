package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pageNumber pulls the trailing page number out of a pdfcpu content dump name
var pageNumber = regexp.MustCompile(`(\d+)\D*$`)

// salvageRange dumps the raw content streams of pages [start, end) with
// pdfcpu and collects the string literals they show. It recovers text from
// files whose fonts or structure defeat the primary reader, at the cost of
// ignoring encodings.
func salvageRange(path string, start, end int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	tmpDir, err := os.MkdirTemp("", "pdfphrase_salvage_*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	selection := []string{fmt.Sprintf("%d-%d", start+1, end)}
	if err := api.ExtractContentFile(path, tmpDir, selection, nil); err != nil {
		return "", fmt.Errorf("pdfcpu ExtractContentFile: %w", err)
	}

	ents, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(ents))
	for _, de := range ents {
		if !de.IsDir() {
			names = append(names, de.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return dumpPage(a) - dumpPage(b)
	})

	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil || len(data) == 0 {
			continue
		}
		b.WriteString(parseStringLiterals(string(data)))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func dumpPage(name string) int {
	m := pageNumber.FindStringSubmatch(strings.TrimSuffix(name, filepath.Ext(name)))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// parseStringLiterals collects the text inside balanced parentheses of a
// content stream, honoring backslash escapes. Each literal is followed by a
// space.
func parseStringLiterals(s string) string {
	var out strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if depth == 0 {
			if c == '(' {
				depth = 1
			}
			continue
		}
		switch c {
		case '\\':
			if i+1 >= len(s) {
				continue
			}
			i++
			switch s[i] {
			case 'n', 'r', 't':
				out.WriteByte(' ')
			case '\n', '\r':
				// line continuation
			default:
				out.WriteByte(s[i])
			}
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				out.WriteByte(' ')
			} else {
				out.WriteByte(c)
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
