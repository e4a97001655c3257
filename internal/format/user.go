// Package format renders user names and dates for display.
package format

import (
	"context"
	"strings"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
)

// UserSource looks up user profiles.
type UserSource interface {
	GetUser(ctx context.Context, ref string) (*models.User, error)
}

// UserFormatter expands display patterns such as "$first_name $last_name".
type UserFormatter struct {
	users UserSource
}

// NewUserFormatter returns a formatter backed by users.
func NewUserFormatter(users UserSource) *UserFormatter {
	return &UserFormatter{users: users}
}

// UserName renders the user for display. Unknown users, and patterns that
// expand to nothing, render as the page name of the reference. With link the
// name is followed by the reference in brackets.
func (f *UserFormatter) UserName(ctx context.Context, userRef, pattern string, link bool) string {
	userRef = strings.TrimSpace(userRef)
	if userRef == "" {
		return ""
	}
	fallback := reference.ResolveDocument(userRef).PrettyName()

	name := ""
	if user, err := f.users.GetUser(ctx, userRef); err == nil && user != nil {
		name = strings.NewReplacer(
			"$first_name", user.FirstName,
			"$last_name", user.LastName,
		).Replace(pattern)
		name = strings.Join(strings.Fields(name), " ")
	}
	if name == "" {
		name = fallback
	}
	if link {
		return name + " (" + userRef + ")"
	}
	return name
}
