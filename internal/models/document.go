// Package models defines core data structures for wiki documents, objects and users.
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/docaccordion/internal/reference"
)

// Target syntaxes understood by the renderer.
const (
	SyntaxXHTML10 = "xhtml/1.0"
	SyntaxHTML50  = "html/5.0"
	SyntaxPlain10 = "plain/1.0"
)

// SyntaxMarkdown12 is the default syntax of document content.
const SyntaxMarkdown12 = "markdown/1.2"

// Document represents a stored wiki document with its attached objects.
type Document struct {
	Reference reference.DocumentReference `json:"reference"`
	Title     string                      `json:"title"`
	Content   string                      `json:"content"`
	Syntax    string                      `json:"syntax"`
	Author    string                      `json:"author"`
	Creator   string                      `json:"creator"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Objects   []*XObject                  `json:"objects,omitempty"`
}

// XObject is an instance of an XClass attached to a document.
type XObject struct {
	ID         string            `json:"id"`
	ClassName  string            `json:"class_name"`
	Number     int               `json:"number"`
	Properties map[string]string `json:"properties,omitempty"`
}

// User holds the profile fields used when displaying a user name.
type User struct {
	Reference string `json:"reference"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName is the local serialization of the document reference.
func (d *Document) FullName() string {
	return d.Reference.LocalString()
}

// XObject returns the first object of the given class, or nil.
func (d *Document) XObject(class reference.DocumentReference) *XObject {
	name := class.LocalString()
	for _, o := range d.Objects {
		if o.ClassName == name {
			return o
		}
	}
	return nil
}

// RenderedTitle returns the display title for the target syntax. Empty titles
// fall back to the page name.
func (d *Document) RenderedTitle(syntax string) (string, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = d.Reference.PrettyName()
	}
	switch syntax {
	case SyntaxXHTML10, SyntaxHTML50, SyntaxPlain10:
		return title, nil
	default:
		return "", fmt.Errorf("unsupported target syntax %q", syntax)
	}
}

// URL returns the address of the document for the given action, e.g. "get".
func (d *Document) URL(action, baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + action + "/" + url.PathEscape(d.FullName())
}

// AuthorReference is the reference of the last author.
func (d *Document) AuthorReference() reference.DocumentReference {
	if d.Author == "" {
		return reference.DocumentReference{}
	}
	return reference.ResolveDocument(d.Author)
}

// Date is the last modification date, or the creation date when never modified.
func (d *Document) Date() time.Time {
	if d.UpdatedAt.IsZero() {
		return d.CreatedAt
	}
	return d.UpdatedAt
}

// StringValue returns a property value, or "" when unset.
func (o *XObject) StringValue(name string) string {
	if o == nil || o.Properties == nil {
		return ""
	}
	return o.Properties[name]
}
