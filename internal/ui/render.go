package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/inkfield/scout/internal/research"
)

var citationPattern = regexp.MustCompile(`\[Source\s+\d+\]`)

// Renderer writes research results to a terminal or pipe.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer. Color is applied only when the writer is
// an interactive terminal and NO_COLOR is unset.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		styles: GetStyles(!UseColor(out)),
	}
}

// NewPlainRenderer creates a renderer that never styles its output.
func NewPlainRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		styles: NoColorStyles(),
	}
}

// Result renders a complete research result.
func (r *Renderer) Result(result *research.Result) {
	r.printf("%s\n\n", r.styles.Header.Render(result.Question))

	if len(result.SubQuestions) > 0 {
		r.printf("%s\n", r.styles.Section.Render("Sub-questions"))
		for _, sq := range result.SubQuestions {
			r.printf("  - %s\n", sq)
		}
		r.printf("\n")
	}

	r.printf("%s\n\n", r.styles.Section.Render("Summary"))
	r.printf("%s\n\n", r.highlightCitations(result.Summary))

	if len(result.Sources) == 0 {
		r.printf("%s\n", r.styles.Warning.Render("No external sources could be retrieved."))
	} else {
		r.printf("%s\n", r.styles.Section.Render(fmt.Sprintf("Sources (%d)", len(result.Sources))))
		for _, src := range result.Sources {
			r.printf("  %s %s\n",
				r.styles.Citation.Render(fmt.Sprintf("[%d]", src.Index)),
				src.Title)
			r.printf("      %s\n", r.styles.URL.Render(src.URL))
			if src.Snippet != "" {
				r.printf("      %s\n", r.styles.Dim.Render(truncate(src.Snippet, 120)))
			}
		}
	}

	r.printf("\n%s\n", r.styles.Dim.Render(fmt.Sprintf("research %s completed in %s",
		result.ID, result.Elapsed.Round(10*time.Millisecond))))
}

// Error renders an error message.
func (r *Renderer) Error(msg string) {
	r.printf("%s\n", r.styles.Error.Render("error: "+msg))
}

// highlightCitations styles [Source k] markers inside the summary text.
func (r *Renderer) highlightCitations(summary string) string {
	return citationPattern.ReplaceAllStringFunc(summary, func(marker string) string {
		return r.styles.Citation.Render(marker)
	})
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
