package macro

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/docaccordion/internal/query"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rights"
)

// Page sizes used when refilling the authorized selection.
const (
	MinPageSize = 200
	MaxPageSize = 1000
)

const likeEscape = '!'

var likeEscaper = strings.NewReplacer(
	"!", "!!",
	"%", "!%",
	"_", "!_",
	".", "!.",
)

// SubtreePrefix is the LIKE pattern matching every document below loc, for use
// with ESCAPE '!'.
func SubtreePrefix(loc reference.SpaceReference) string {
	return likeEscaper.Replace(loc.LocalString()) + ".%"
}

// Statement builds the selection query for intent.
func Statement(intent *Intent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FROM doc.object(%s) AS obj", intent.Class.LocalString())
	if intent.Location != nil {
		fmt.Fprintf(&sb, " WHERE doc.fullName LIKE :prefix ESCAPE '%c'", likeEscape)
	}
	if intent.Params.Sort == SortAlpha {
		sb.WriteString(" ORDER BY doc.title")
	} else {
		sb.WriteString(" ORDER BY doc.date DESC")
	}
	return sb.String()
}

func pageSize(limit int) int {
	if limit <= DefaultLimit {
		return MinPageSize
	}
	return MaxPageSize
}

// Select returns up to limit documents matching intent that the principal may
// view, in query order.
func (m *Macro) Select(ctx context.Context, intent *Intent) ([]reference.DocumentReference, error) {
	limit := intent.Params.Limit
	if limit < 1 {
		limit = 1
	}

	q, err := m.queries.CreateQuery(Statement(intent), query.XWQL)
	if err != nil {
		return nil, err
	}
	if intent.Location != nil {
		q.BindValue("prefix", SubtreePrefix(*intent.Location))
	}
	size := pageSize(limit)
	q.SetLimit(size)

	var selected []reference.DocumentReference
	for offset := 0; ; offset += size {
		q.SetOffset(offset)
		names, err := q.Execute(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			ref := reference.ResolveDocument(name)
			ref.Wiki = intent.Class.Wiki
			ok, err := m.rights.HasAccess(ctx, rights.View, ref)
			if err != nil {
				return nil, fmt.Errorf("failed to check view right on %s: %w", name, err)
			}
			if !ok {
				continue
			}
			selected = append(selected, ref)
			if len(selected) == limit {
				return selected, nil
			}
		}
		if len(names) < size {
			return selected, nil
		}
	}
}
