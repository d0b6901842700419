package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// execute runs the command tree with args and returns combined output.
func execute(t *testing.T, e *env, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(e)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func testEnv() *env {
	return &env{
		pick: func(context.Context) ([]string, error) { return nil, nil },
		open: func(string) error { return nil },
	}
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	out, err := execute(t, testEnv(), "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"exact", "flexible", "heatmap", "multi", "menu", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, testEnv(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfphrase v"+version)
}

func TestExactCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "The cat sat. A cat ran. Concatenate.")

	out, err := execute(t, testEnv(), "", "exact", "--output-dir", dir, doc, "cat")
	require.NoError(t, err)

	assert.Contains(t, out, "Occurrences of 'cat': 2")
	assert.Contains(t, out, "Words analysed: 7")
	assert.FileExists(t, filepath.Join(dir, "exact_search_report.pdf"))
}

func TestExactCmd_MissingDocument(t *testing.T) {
	_, err := execute(t, testEnv(), "", "exact", "--output-dir", t.TempDir(), "/no/such/book.pdf", "cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/no/such/book.pdf")
}

func TestExactCmd_RequiresPhrase(t *testing.T) {
	_, err := execute(t, testEnv(), "", "exact", "book.pdf")
	assert.Error(t, err)
}

func TestFlexibleCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "alpha one beta. alpha beta. alpha one two three beta.")

	out, err := execute(t, testEnv(), "", "flexible", "--output-dir", dir, doc, "alpha", "beta")
	require.NoError(t, err)
	assert.Contains(t, out, "Flexible occurrences of 'alpha beta': 1")
	assert.FileExists(t, filepath.Join(dir, "flexible_search_report.pdf"))
}

func TestFlexibleCmd_SingleWordIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "alpha one beta.")

	out, err := execute(t, testEnv(), "", "flexible", "--output-dir", dir, doc, "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "at least two words")
	assert.Contains(t, out, "Flexible occurrences of 'alpha': 0")
}

func TestFlexibleCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "alpha one beta.")

	_, err := execute(t, testEnv(), "", "flexible", "--max-intermediate", "0", doc, "alpha beta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_intermediate")
}

func TestHeatmapCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "castle castle night night night blood 1897 1897 1897")

	out, err := execute(t, testEnv(), "", "heatmap", "--output-dir", dir, "--top-n", "2", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Heatmap:")
	assert.FileExists(t, filepath.Join(dir, "word_heatmap.png"))
}

func TestHeatmapCmd_NoWords(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "a b c 12345")

	out, err := execute(t, testEnv(), "", "heatmap", "--output-dir", dir, doc)
	require.NoError(t, err)
	assert.Contains(t, out, "No words met the criteria")
	assert.Contains(t, out, "Heatmap: not generated")
	assert.NoFileExists(t, filepath.Join(dir, "word_heatmap.png"))
}

func TestMultiCmd_SkipsMissingDocument(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "alpha one beta.")
	b := writeDoc(t, dir, "b.txt", "alpha one two beta.")
	missing := filepath.Join(dir, "missing.txt")

	out, err := execute(t, testEnv(), "", "multi", "--output-dir", dir, "alpha beta", a, missing, b)
	require.NoError(t, err)

	assert.Contains(t, out, "2 searched, 1 skipped")
	assert.Contains(t, out, "skipped missing.txt")
	assert.Contains(t, out, "Flexible occurrences of 'alpha beta': 2")
	assert.FileExists(t, filepath.Join(dir, "multi_pdf_flexible_search_report.pdf"))
	assert.FileExists(t, filepath.Join(dir, "pdf_heatmap.png"))
}

func TestMultiCmd_UsesPickerWithoutArguments(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "alpha one beta.")

	e := testEnv()
	picked := false
	e.pick = func(context.Context) ([]string, error) {
		picked = true
		return []string{a}, nil
	}

	out, err := execute(t, e, "", "multi", "--output-dir", dir, "alpha beta")
	require.NoError(t, err)
	assert.True(t, picked)
	assert.Contains(t, out, "1 searched, 0 skipped")
}

func TestMultiCmd_NothingSelected(t *testing.T) {
	_, err := execute(t, testEnv(), "", "multi", "alpha beta")
	assert.ErrorIs(t, err, errNoDocuments)
}

func TestMultiCmd_NoMatchesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "nothing to see here.")

	out, err := execute(t, testEnv(), "", "multi", "--output-dir", dir, "alpha beta", a)
	require.NoError(t, err)
	assert.Contains(t, out, "No flexible matches were found")
	assert.NoFileExists(t, filepath.Join(dir, "multi_pdf_flexible_search_report.pdf"))
}

func TestOpenFlag(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "book.txt", "The cat sat.")

	e := testEnv()
	var opened []string
	e.open = func(path string) error {
		opened = append(opened, path)
		return nil
	}

	_, err := execute(t, e, "", "exact", "--open", "--output-dir", dir, doc, "cat")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "exact_search_report.pdf")}, opened)
}

func TestParseSelection(t *testing.T) {
	got := parseSelection("/a/one.pdf\n/a/notes.txt\n\n/b/TWO.PDF\n")
	assert.Equal(t, []string{"/a/one.pdf", "/b/TWO.PDF"}, got)
	assert.Empty(t, parseSelection(""))
}
