package rights

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/docaccordion/internal/reference"
)

// Service stores rules in SQLite and evaluates them for the user in the context.
type Service struct {
	db *sql.DB
}

// NewService creates the rules table if needed.
func NewService(db *sql.DB) (*Service, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS rights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT '',
		scope_type TEXT NOT NULL,
		access_right TEXT NOT NULL,
		allow INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rights_lookup ON rights(access_right, subject);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize rights schema: %w", err)
	}
	return &Service{db: db}, nil
}

// AddRule stores a rule.
func (s *Service) AddRule(ctx context.Context, rule Rule) error {
	scope := rule.Scope
	if rule.ScopeType == ScopeWiki {
		scope = ""
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rights (subject, scope, scope_type, access_right, allow) VALUES (?, ?, ?, ?, ?)`,
		rule.Subject, scope, string(rule.ScopeType), string(rule.Right), rule.Allow,
	)
	return err
}

// HasAccess reports whether the user carried by ctx holds right on ref.
func (s *Service) HasAccess(ctx context.Context, right Right, ref reference.DocumentReference) (bool, error) {
	user := UserFrom(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT scope, scope_type, allow FROM rights WHERE access_right = ? AND subject IN (?, ?)`,
		string(right), user, Everyone,
	)
	if err != nil {
		return false, fmt.Errorf("failed to load rights: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		var scopeType string
		if err := rows.Scan(&r.Scope, &scopeType, &r.Allow); err != nil {
			return false, err
		}
		r.ScopeType = ScopeType(scopeType)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return decide(rules, right, ref), nil
}

// decide picks the most specific matching level, then lets deny win.
func decide(rules []Rule, right Right, ref reference.DocumentReference) bool {
	depths := map[string]int{"": 0}
	for i, s := range ref.Space().Ancestors() {
		depths[string(ScopeSpace)+":"+s] = i + 1
	}
	depths[string(ScopeDocument)+":"+ref.LocalString()] = len(ref.Spaces) + 1

	best := -1
	allowed := false
	for _, r := range rules {
		key := ""
		if r.ScopeType != ScopeWiki {
			key = string(r.ScopeType) + ":" + r.Scope
		}
		depth, ok := depths[key]
		if !ok {
			continue
		}
		switch {
		case depth > best:
			best, allowed = depth, r.Allow
		case depth == best:
			allowed = allowed && r.Allow
		}
	}
	if best < 0 {
		return defaultAllowed(right)
	}
	return allowed
}
