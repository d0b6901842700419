package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"

	"pdfphrase/search"
)

var (
	tagRegex    = regexp.MustCompile(`<[^>]*>`)
	entityRegex = regexp.MustCompile(`&[a-zA-Z0-9#]*;`)
)

// EMLSource extracts the body of a MIME message as one chunk, with the
// subject prepended.
type EMLSource struct{}

// Extract implements search.ChunkSource.
func (EMLSource) Extract(_ context.Context, path string) ([]search.PageChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, err := messageText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return singleChunk(text), nil
}

// messageText parses a MIME message and returns subject and body, preferring
// the plain-text part over stripped HTML.
func messageText(r io.Reader) (string, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}

	body := env.Text
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		body = stripHTMLTags(env.HTML)
	}

	var b strings.Builder
	if subject := env.GetHeader("Subject"); subject != "" {
		b.WriteString(subject)
		b.WriteString(".\n")
	}
	b.WriteString(body)
	return b.String(), nil
}

// stripHTMLTags removes HTML tags from text (simple implementation)
func stripHTMLTags(html string) string {
	text := tagRegex.ReplaceAllString(html, " ")
	return entityRegex.ReplaceAllStringFunc(text, func(entity string) string {
		switch entity {
		case "&amp;":
			return "&"
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&quot;":
			return "\""
		case "&apos;", "&#39;":
			return "'"
		default:
			return " "
		}
	})
}

// MBOXSource treats every message of a mailbox as one page, so matches
// report the message index as their page range.
type MBOXSource struct {
	Logger *slog.Logger
}

// Extract implements search.ChunkSource.
func (s *MBOXSource) Extract(ctx context.Context, path string) ([]search.PageChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := mbox.NewReader(bytes.NewReader(data))
	var chunks []search.PageChunk
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: message %d: %w", path, page, err)
		}

		text, err := messageText(msg)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("unreadable message left empty",
					slog.String("path", path), slog.Int("message", page), slog.String("error", err.Error()))
			}
			text = ""
		}
		chunks = append(chunks, search.PageChunk{StartPage: page, EndPage: page + 1, Text: text})
	}
	return chunks, nil
}
