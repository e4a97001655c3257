// Package reference resolves and serializes wiki entity references.
//
// Local serialization joins space names and the page name with '.', escaping a
// literal '.' or '\' inside a name with '\'. A leading "wiki:" prefix selects
// the wiki; local serialization never includes it.
package reference

import (
	"strings"
)

const (
	// DefaultWiki is used when a reference string carries no wiki prefix.
	DefaultWiki = "xwiki"
	// DefaultSpace is used when a document reference string has no space part.
	DefaultSpace = "Main"
	// DefaultPage is the landing document of a space.
	DefaultPage = "WebHome"
)

// SpaceReference identifies a node of the document hierarchy.
type SpaceReference struct {
	Wiki   string   `json:"wiki"`
	Spaces []string `json:"spaces"`
}

// DocumentReference identifies a wiki document. XClasses are documents too.
type DocumentReference struct {
	Wiki   string   `json:"wiki"`
	Spaces []string `json:"spaces"`
	Name   string   `json:"name"`
}

// ResolveDocument parses a (possibly wiki-prefixed) full name such as
// "Blog.BlogPostClass" or "xwiki:Apps.Tickets.WebHome".
func ResolveDocument(s string) DocumentReference {
	wiki, rest := splitWiki(strings.TrimSpace(s))
	parts := split(rest)
	ref := DocumentReference{Wiki: wiki}
	switch len(parts) {
	case 0:
		ref.Spaces = []string{DefaultSpace}
		ref.Name = DefaultPage
	case 1:
		ref.Spaces = []string{DefaultSpace}
		ref.Name = parts[0]
	default:
		ref.Spaces = parts[:len(parts)-1]
		ref.Name = parts[len(parts)-1]
	}
	if ref.Name == "" {
		ref.Name = DefaultPage
	}
	return ref
}

// ResolveSpace parses a space path such as "Apps.My.App" into nested spaces.
func ResolveSpace(s string) SpaceReference {
	wiki, rest := splitWiki(strings.TrimSpace(s))
	parts := split(rest)
	if len(parts) == 0 {
		parts = []string{DefaultSpace}
	}
	return SpaceReference{Wiki: wiki, Spaces: parts}
}

// LocalString is the local serialization: spaces and name joined by '.'.
func (r DocumentReference) LocalString() string {
	return join(append(append([]string(nil), r.Spaces...), r.Name))
}

// String includes the wiki prefix.
func (r DocumentReference) String() string {
	return r.wiki() + ":" + r.LocalString()
}

// Space returns the space that holds the document.
func (r DocumentReference) Space() SpaceReference {
	return SpaceReference{Wiki: r.Wiki, Spaces: append([]string(nil), r.Spaces...)}
}

// Equal reports whether both references point to the same document.
func (r DocumentReference) Equal(o DocumentReference) bool {
	return r.wiki() == o.wiki() && r.LocalString() == o.LocalString()
}

// IsZero reports whether the reference was never set.
func (r DocumentReference) IsZero() bool {
	return r.Name == "" && len(r.Spaces) == 0
}

// PrettyName is the page name, or the enclosing space name for a space landing page.
func (r DocumentReference) PrettyName() string {
	if r.Name == DefaultPage && len(r.Spaces) > 0 {
		return r.Spaces[len(r.Spaces)-1]
	}
	return r.Name
}

func (r DocumentReference) wiki() string {
	if r.Wiki == "" {
		return DefaultWiki
	}
	return r.Wiki
}

// LocalString is the local serialization of the space path.
func (r SpaceReference) LocalString() string {
	return join(r.Spaces)
}

// String includes the wiki prefix.
func (r SpaceReference) String() string {
	wiki := r.Wiki
	if wiki == "" {
		wiki = DefaultWiki
	}
	return wiki + ":" + r.LocalString()
}

// Document returns the reference of the named document inside this space.
func (r SpaceReference) Document(name string) DocumentReference {
	return DocumentReference{Wiki: r.Wiki, Spaces: append([]string(nil), r.Spaces...), Name: name}
}

// Ancestors returns the local serialization of every space from the root down
// to r itself.
func (r SpaceReference) Ancestors() []string {
	out := make([]string, 0, len(r.Spaces))
	for i := 1; i <= len(r.Spaces); i++ {
		out = append(out, join(r.Spaces[:i]))
	}
	return out
}

func splitWiki(s string) (string, string) {
	if i := strings.IndexByte(s, ':'); i > 0 && !strings.ContainsAny(s[:i], `.\`) {
		return s[:i], s[i+1:]
	}
	return "", s
}

// split cuts s on unescaped dots and removes escapes.
func split(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, c := range s {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '.':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	return append(parts, cur.String())
}

func join(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = escapeName(n)
	}
	return strings.Join(escaped, ".")
}

var nameEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`)

func escapeName(n string) string {
	return nameEscaper.Replace(n)
}
