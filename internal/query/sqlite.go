package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteManager compiles wiki queries against the storage schema.
type SQLiteManager struct {
	db *sql.DB
}

// NewSQLiteManager returns a manager bound to the document database.
func NewSQLiteManager(db *sql.DB) *SQLiteManager {
	return &SQLiteManager{db: db}
}

// CreateQuery parses statement. Only XWQL is accepted.
func (m *SQLiteManager) CreateQuery(statement, language string) (Query, error) {
	if !strings.EqualFold(language, XWQL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	c, err := compile(statement)
	if err != nil {
		return nil, err
	}
	return &sqliteQuery{db: m.db, compiled: c, values: map[string]any{}}, nil
}

type sqliteQuery struct {
	db       *sql.DB
	compiled *compiled
	values   map[string]any
	limit    int
	offset   int
}

func (q *sqliteQuery) BindValue(name string, value any) {
	q.values[name] = value
}

func (q *sqliteQuery) SetLimit(limit int) {
	q.limit = limit
}

func (q *sqliteQuery) SetOffset(offset int) {
	q.offset = offset
}

func (q *sqliteQuery) Execute(ctx context.Context) ([]string, error) {
	args := make([]any, 0, len(q.compiled.Params)+3)
	args = append(args, q.compiled.Class)
	for _, name := range q.compiled.Params {
		v, ok := q.values[name]
		if !ok {
			return nil, fmt.Errorf("query parameter %q is not bound", name)
		}
		args = append(args, v)
	}
	limit := q.limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, q.offset)

	rows, err := q.db.QueryContext(ctx, q.compiled.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
