package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pdfphrase/config"
)

func newMenuCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu <document>",
		Short: "Load a document once and run searches from an interactive menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &menu{
				env: e,
				s:   newSession(e.cfg, e.logger),
				in:  bufio.NewScanner(cmd.InOrStdin()),
				out: cmd.OutOrStdout(),
			}
			return m.loop(cmd.Context(), args[0])
		},
	}
	cmd.Flags().String("policy", config.PolicyAbort, "Chunk failure policy (abort or skip)")
	cmd.Flags().String("multi-policy", config.PolicySkip, "Document failure policy (abort or skip)")
	addFlexibleFlags(cmd)
	addHeatmapFlags(cmd)
	return cmd
}

// menu is the line-oriented interactive mode.
type menu struct {
	env *env
	s   *session
	in  *bufio.Scanner
	out io.Writer
}

func (m *menu) p() printer { return printer{w: m.out} }

// ask prints a prompt and reads one trimmed line; ok is false at end of input.
func (m *menu) ask(prompt string) (line string, ok bool) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) loop(ctx context.Context, path string) error {
	p := m.p()
	p.status("=== Processing document (this may take a few seconds)... ===")
	start := time.Now()
	chunks, err := m.s.load(ctx, path)
	if err != nil {
		return err
	}
	p.status(fmt.Sprintf("=== Document ready for searching (%d chunks, %.2fs) ===", len(chunks), time.Since(start).Seconds()))

	for {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, subHeaderStyle.Render("Available options:"))
		fmt.Fprintln(m.out, infoStyle.Render("1. Exact phrase search (one document)"))
		fmt.Fprintln(m.out, infoStyle.Render(fmt.Sprintf("2. Flexible phrase search (up to %d intervening words)", m.s.cfg.MaxIntermediate)))
		fmt.Fprintln(m.out, infoStyle.Render("3. Heatmap of frequent words"))
		fmt.Fprintln(m.out, infoStyle.Render("4. Flexible phrase search across multiple documents"))
		fmt.Fprintln(m.out, infoStyle.Render("5. Exit"))

		choice, ok := m.ask("Select an option (1-5): ")
		if !ok {
			return nil
		}

		var o outcome
		switch choice {
		case "1":
			phrase, ok := m.ask("Enter the exact phrase to search for: ")
			if !ok {
				return nil
			}
			o, err = m.s.exact(ctx, chunks, phrase)
		case "2":
			phrase, ok := m.ask("Enter the phrase to search for: ")
			if !ok {
				return nil
			}
			o, err = m.s.flexible(ctx, chunks, phrase)
		case "3":
			p.status("Generating heatmap...")
			o, err = m.s.heatmap(chunks)
		case "4":
			o, err = m.multi(ctx)
			if errors.Is(err, errNoDocuments) {
				p.warn("No documents were selected")
				continue
			}
		case "5":
			p.status("Exiting...")
			return nil
		default:
			p.warn("Invalid option. Please choose 1-5.")
			continue
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return err
			}
			p.err(err)
			continue
		}
		p.summary(o)
		if err := m.env.show(o); err != nil {
			p.err(err)
		}
	}
}

func (m *menu) multi(ctx context.Context) (outcome, error) {
	paths, err := m.env.documents(ctx, nil)
	if err != nil {
		return outcome{}, err
	}
	phrase, ok := m.ask("Enter the phrase to search for: ")
	if !ok {
		return outcome{}, io.EOF
	}
	m.p().status(fmt.Sprintf("Flexible search for '%s' in %d documents...", phrase, len(paths)))
	return m.s.multi(ctx, paths, phrase)
}
