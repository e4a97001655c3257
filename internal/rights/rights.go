// Package rights evaluates access rights on wiki documents.
//
// Rules are attached to the wiki, a space or a single document. The most
// specific level that has a matching rule decides; at the same level a deny
// beats an allow. Without any matching rule the wiki is readable by everybody
// but only viewing is granted.
package rights

import (
	"context"
	"strings"
)

// Right is an action a user can perform on a document.
type Right string

const (
	View    Right = "view"
	Comment Right = "comment"
	Edit    Right = "edit"
	Delete  Right = "delete"
	Admin   Right = "admin"
)

// ScopeType tells what a rule is attached to.
type ScopeType string

const (
	ScopeWiki     ScopeType = "wiki"
	ScopeSpace    ScopeType = "space"
	ScopeDocument ScopeType = "document"
)

// Everyone matches any user, the guest included.
const Everyone = "*"

// Guest is the user of an unauthenticated request.
const Guest = "XWiki.XWikiGuest"

// Rule grants or denies a right to a subject on a scope.
type Rule struct {
	Subject   string    `json:"subject" yaml:"subject"`
	Scope     string    `json:"scope" yaml:"scope"`
	ScopeType ScopeType `json:"scope_type" yaml:"scope_type"`
	Right     Right     `json:"right" yaml:"right"`
	Allow     bool      `json:"allow" yaml:"allow"`
}

// ParseRight normalizes a right name.
func ParseRight(s string) (Right, bool) {
	switch r := Right(strings.ToLower(strings.TrimSpace(s))); r {
	case View, Comment, Edit, Delete, Admin:
		return r, true
	default:
		return "", false
	}
}

// ParseScopeType normalizes a scope type name.
func ParseScopeType(s string) (ScopeType, bool) {
	switch st := ScopeType(strings.ToLower(strings.TrimSpace(s))); st {
	case ScopeWiki, ScopeSpace, ScopeDocument:
		return st, true
	default:
		return "", false
	}
}

type userKey struct{}

// WithUser returns a context carrying the invoking principal.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, strings.TrimSpace(user))
}

// UserFrom returns the invoking principal, or Guest.
func UserFrom(ctx context.Context) string {
	if u, ok := ctx.Value(userKey{}).(string); ok && u != "" {
		return u
	}
	return Guest
}

// defaultAllowed is the decision when no rule matches.
func defaultAllowed(right Right) bool {
	return right == View
}
