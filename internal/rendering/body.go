package rendering

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"

	"github.com/hyperjump/docaccordion/internal/models"
)

var markdown = goldmark.New()

// RenderBody writes document content as HTML. Markdown content is converted;
// plain content is escaped into a paragraph.
func RenderBody(w io.Writer, content, syntax string) error {
	switch syntax {
	case "", models.SyntaxMarkdown12:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err != nil {
			return fmt.Errorf("failed to convert markdown: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case models.SyntaxPlain10:
		_, err := fmt.Fprintf(w, "<p>%s</p>\n", html.EscapeString(content))
		return err
	default:
		return fmt.Errorf("unsupported content syntax %q", syntax)
	}
}
