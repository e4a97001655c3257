// Package cli provides CLI output helpers for docaccordion.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/docaccordion/internal/macro"
	"github.com/hyperjump/docaccordion/internal/rendering"
)

// OutputFormat is the format of rendered accordion output.
type OutputFormat string

const (
	// OutputHTML is the HTML fragment the browser receives (default).
	OutputHTML OutputFormat = "html"
	// OutputJSON is the block tree as JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputTree is an indented outline of the block tree.
	OutputTree OutputFormat = "tree"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputHTML, OutputJSON, OutputTree:
		return f, nil
	case "":
		return OutputHTML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want html, json or tree)", s)
	}
}

// WriteBlocks writes a block tree to w in the given format.
func WriteBlocks(w io.Writer, blocks []*rendering.Block, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(blocks)
	case OutputTree:
		for _, b := range blocks {
			writeTree(w, b, 0)
		}
		return nil
	default:
		if err := rendering.Render(w, blocks); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
}

func writeTree(w io.Writer, b *rendering.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	switch b.Kind {
	case rendering.KindWord:
		fmt.Fprintf(w, "%sword %s\n", indent, strconv.Quote(Truncate(b.Text, 60)))
		return
	case rendering.KindHeader:
		fmt.Fprintf(w, "%sheader level=%d%s\n", indent, b.Level, formatParams(b.Params))
	case rendering.KindLink:
		ref := ""
		if b.Reference != nil {
			ref = fmt.Sprintf(" ref=%s(%s)", b.Reference.Reference, b.Reference.Type)
		}
		fmt.Fprintf(w, "%slink%s%s\n", indent, ref, formatParams(b.Params))
	default:
		fmt.Fprintf(w, "%s%s%s\n", indent, b.Kind, formatParams(b.Params))
	}
	for _, c := range b.Children {
		writeTree(w, c, depth+1)
	}
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%q", k, params[k])
	}
	return sb.String()
}

// WriteDescriptor prints the macro parameters as help text.
func WriteDescriptor(w io.Writer, d macro.Descriptor) {
	fmt.Fprintf(w, "%s (%s)\n  %s\n\nParameters:\n", d.Name, d.ID, d.Description)
	for _, p := range d.Parameters {
		def := ""
		if p.Default != "" {
			def = " (default " + p.Default + ")"
		}
		fmt.Fprintf(w, "  %-20s %s%s\n", p.Name, p.Type, def)
		fmt.Fprintf(w, "  %-20s %s\n", "", Truncate(p.Description, 100))
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
