// Package query provides the wiki query service: statements written in the
// wiki-query language are compiled to SQL and executed against the document store.
package query

import (
	"context"
	"errors"
)

// XWQL is the wiki-query language identifier.
const XWQL = "xwql"

// ErrUnsupportedLanguage is returned by CreateQuery for languages other than XWQL.
var ErrUnsupportedLanguage = errors.New("unsupported query language")

// Query is a prepared statement with bound parameters and paging.
type Query interface {
	BindValue(name string, value any)
	SetLimit(limit int)
	SetOffset(offset int)
	// Execute returns the full names of the matching documents.
	Execute(ctx context.Context) ([]string, error)
}

// Manager creates queries.
type Manager interface {
	CreateQuery(statement, language string) (Query, error)
}
