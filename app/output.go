package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pdfphrase/report"
	"pdfphrase/search"
)

// outcome is what one search or heatmap run produced.
type outcome struct {
	Title     string
	Phrase    string
	Flexible  bool
	Result    search.Result
	Documents []search.DocumentOutcome
	Elapsed   time.Duration

	// Generated files, labelled ("Report", "Heatmap").
	Files []artifact
	// Notice is a non-fatal diagnostic such as a phrase that is too short.
	Notice string
}

type artifact struct {
	Label string
	Path  string
}

func (o outcome) paths() []string {
	var out []string
	for _, a := range o.Files {
		if a.Path != "" {
			out = append(out, a.Path)
		}
	}
	return out
}

// printer writes styled status lines and summaries.
type printer struct {
	w io.Writer
}

func (p printer) status(text string) {
	fmt.Fprintln(p.w, infoStyle.Render(text))
}

func (p printer) warn(text string) {
	fmt.Fprintln(p.w, warningStyle.Render(text))
}

func (p printer) field(label, value string) {
	fmt.Fprintln(p.w, subHeaderStyle.Render(label+":")+" "+infoStyle.Render(value))
}

func (p printer) summary(o outcome) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, headerStyle.Render("=== RESULTS ==="))
	if o.Notice != "" {
		p.warn(o.Notice)
	}
	p.field("Time", fmt.Sprintf("%.2fs", o.Elapsed.Seconds()))

	if o.Phrase != "" {
		p.field("Words analysed", report.FormatCount(o.Result.TotalWords))
		label := fmt.Sprintf("Occurrences of '%s'", o.Phrase)
		if o.Flexible {
			label = fmt.Sprintf("Flexible occurrences of '%s'", o.Phrase)
		}
		p.field(label, report.FormatCount(o.Result.Occurrences()))
	}

	if len(o.Documents) > 0 {
		skipped := 0
		for _, d := range o.Documents {
			if d.Skipped {
				skipped++
			}
		}
		p.field("Documents", fmt.Sprintf("%d searched, %d skipped", len(o.Documents)-skipped, skipped))
		for _, d := range o.Documents {
			if d.Skipped {
				p.warn(fmt.Sprintf("  skipped %s: %v", d.Name, d.Err))
			}
		}
	}

	for _, a := range o.Files {
		value := "not generated"
		if a.Path != "" {
			value = absPath(a.Path)
		}
		p.field(a.Label, value)
	}
}

func (p printer) err(err error) {
	fmt.Fprintln(p.w, errorStyle.Render("Error: "+err.Error()))
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// banner is the styled name line shown above the help text.
func banner() string {
	name := fmt.Sprintf(" pdfphrase  v%s", version)
	tag := " phrase search for PDF documents"
	if len(tag) > len(name) {
		name += strings.Repeat(" ", len(tag)-len(name))
	}
	return logoStyle.Render(name + "\n" + tag)
}
