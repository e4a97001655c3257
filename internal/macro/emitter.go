package macro

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rendering"
)

// Display patterns of the panel footer.
const (
	AuthorPattern = "$first_name $last_name"
	DatePattern   = "dd MMMM yyyy"
)

// Emit builds the accordion tree for the selected documents. A document that
// cannot be rendered is logged and left out.
func (m *Macro) Emit(ctx context.Context, selected []reference.DocumentReference, p Parameters, tctx TransformationContext) *rendering.Block {
	ids := newIDSet(m.newID)
	rootID := "accordion" + ids.next()
	root := rendering.NewGroup(map[string]string{
		"class":                "panel-group xwiki-accordion",
		"role":                 "tablist",
		"aria-multiselectable": "true",
		"id":                   rootID,
	})

	for _, ref := range selected {
		open := p.OpenFirstAccordion && len(root.Children) == 0
		panel, err := m.panel(ctx, ref, rootID, ids.next(), open, p, tctx)
		if err != nil {
			m.logger.Error("failed to generate accordion panel",
				zap.String("document", ref.LocalString()),
				zap.Error(err))
			continue
		}
		root.AddChild(panel)
	}
	return root
}

func (m *Macro) panel(ctx context.Context, ref reference.DocumentReference, rootID, suffix string, open bool, p Parameters, tctx TransformationContext) (*rendering.Block, error) {
	doc, err := m.store.GetDocument(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	title, err := doc.RenderedTitle(tctx.Syntax)
	if err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}

	headingClass := "panel-heading"
	if open {
		headingClass += " openFirstAccordion"
	}
	collapseID := "collapse" + suffix

	link := rendering.NewLink(
		rendering.ResourceReference{Reference: "#" + collapseID, Type: rendering.ResourcePath},
		true,
		map[string]string{
			"role":          "button",
			"data-toggle":   "collapse",
			"data-parent":   "#" + rootID,
			"aria-expanded": "true",
			"aria-controls": collapseID,
			"rel":           doc.URL("get", m.baseURL),
		},
		rendering.NewWord(title),
	)
	heading := rendering.NewGroup(map[string]string{
		"class": headingClass,
		"id":    "accordionHeading" + suffix,
	}, rendering.NewHeader(4, map[string]string{"class": "panel-title"}, link))

	bodyParams := map[string]string{"class": "panel-body"}
	if p.AccordionMaxHeight > 0 {
		bodyParams["style"] = fmt.Sprintf("overflow: scroll;max-height: %dpx", p.AccordionMaxHeight)
	}
	body := rendering.NewGroup(bodyParams,
		rendering.NewGroup(map[string]string{"class": "xwiki-accordion-content"}, rendering.NewWord("")))
	if p.DisplayAuthor || p.DisplayDate {
		body.AddChild(rendering.NewGroup(
			map[string]string{"class": "text-muted text-right xwiki-accordion-footer"},
			rendering.NewWord(m.footer(ctx, doc, p, tctx.Locale)),
		))
	}

	collapse := rendering.NewGroup(map[string]string{
		"class":           "panel-collapse collapse",
		"id":              collapseID,
		"role":            "tabpanel",
		"aria-labelledby": "heading" + suffix,
	}, body)

	return rendering.NewGroup(map[string]string{"class": "panel panel-default"}, heading, collapse), nil
}

func (m *Macro) footer(ctx context.Context, doc *models.Document, p Parameters, locale string) string {
	var author, date string
	if p.DisplayAuthor {
		if ref := doc.AuthorReference(); !ref.IsZero() {
			author = m.users.UserName(ctx, ref.LocalString(), AuthorPattern, false)
		}
	}
	if p.DisplayDate {
		if t := doc.Date(); !t.IsZero() {
			date = m.dates.FormatDate(t, DatePattern, locale)
		}
	}
	return FooterText(
		m.translate(keyPrefix+"footer.modified", locale, "Modified"),
		m.translate(keyPrefix+"footer.by", locale, "by"),
		m.translate(keyPrefix+"footer.on", locale, "on"),
		author, date,
	)
}

// FooterText composes "<modified> <by> <author>, <on> <date>", leaving out the
// blank parts.
func FooterText(modified, by, on, author, date string) string {
	author = strings.TrimSpace(author)
	date = strings.TrimSpace(date)
	switch {
	case author != "" && date != "":
		return fmt.Sprintf("%s %s %s, %s %s", modified, by, author, on, date)
	case author != "":
		return fmt.Sprintf("%s %s %s", modified, by, author)
	case date != "":
		return fmt.Sprintf("%s %s %s", modified, on, date)
	default:
		return modified
	}
}
