// Package fixture loads wiki content described in YAML into the document store.
package fixture

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rights"
)

// Fixture is the content of an import file.
type Fixture struct {
	Users     []User     `yaml:"users"`
	Rights    []Rule     `yaml:"rights"`
	Documents []Document `yaml:"documents"`
}

// User is a user profile entry.
type User struct {
	Reference string `yaml:"reference"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Rule is a rights entry. Right and scope type names are validated on import.
type Rule struct {
	Subject   string `yaml:"subject"`
	Scope     string `yaml:"scope"`
	ScopeType string `yaml:"scope_type"`
	Right     string `yaml:"right"`
	Allow     bool   `yaml:"allow"`
}

// Document is a document entry with its objects.
type Document struct {
	Name    string    `yaml:"name"`
	Title   string    `yaml:"title"`
	Content string    `yaml:"content"`
	Syntax  string    `yaml:"syntax"`
	Author  string    `yaml:"author"`
	Creator string    `yaml:"creator"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
	Objects []Object  `yaml:"objects"`
}

// Object is an XObject entry.
type Object struct {
	Class      string            `yaml:"class"`
	Properties map[string]string `yaml:"properties"`
}

// DocumentWriter saves documents and users.
type DocumentWriter interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	SaveUser(ctx context.Context, user *models.User) error
}

// RuleWriter saves rights rules.
type RuleWriter interface {
	AddRule(ctx context.Context, rule rights.Rule) error
}

// Summary counts imported entries.
type Summary struct {
	Users     int `json:"users"`
	Rights    int `json:"rights"`
	Documents int `json:"documents"`
	Objects   int `json:"objects"`
}

// Load reads and parses the fixture file at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	for i, d := range f.Documents {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("document #%d has no name", i+1)
		}
		for j, o := range d.Objects {
			if strings.TrimSpace(o.Class) == "" {
				return nil, fmt.Errorf("document %s: object #%d has no class", d.Name, j+1)
			}
		}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Reference) == "" {
			return nil, fmt.Errorf("user #%d has no reference", i+1)
		}
	}
	for i, r := range f.Rights {
		if _, err := r.rule(); err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i+1, err)
		}
	}
	return &f, nil
}

func (r Rule) rule() (rights.Rule, error) {
	right, ok := rights.ParseRight(r.Right)
	if !ok {
		return rights.Rule{}, fmt.Errorf("unknown right %q", r.Right)
	}
	scopeType, ok := rights.ParseScopeType(r.ScopeType)
	if !ok {
		return rights.Rule{}, fmt.Errorf("unknown scope type %q", r.ScopeType)
	}
	subject := strings.TrimSpace(r.Subject)
	if subject == "" {
		subject = rights.Everyone
	}
	return rights.Rule{Subject: subject, Scope: strings.TrimSpace(r.Scope), ScopeType: scopeType, Right: right, Allow: r.Allow}, nil
}

func (d Document) document() *models.Document {
	doc := &models.Document{
		Reference: reference.ResolveDocument(d.Name),
		Title:     d.Title,
		Content:   d.Content,
		Syntax:    d.Syntax,
		Author:    d.Author,
		Creator:   d.Creator,
		CreatedAt: d.Created,
		UpdatedAt: d.Updated,
	}
	if doc.Syntax == "" {
		doc.Syntax = models.SyntaxMarkdown12
	}
	if doc.Creator == "" {
		doc.Creator = doc.Author
	}
	numbers := map[string]int{}
	for _, o := range d.Objects {
		class := reference.ResolveDocument(o.Class).LocalString()
		doc.Objects = append(doc.Objects, &models.XObject{
			ClassName:  class,
			Number:     numbers[class],
			Properties: o.Properties,
		})
		numbers[class]++
	}
	return doc
}

// Apply writes the fixture to the store. Rules are skipped when ruleWriter is nil.
func (f *Fixture) Apply(ctx context.Context, docs DocumentWriter, ruleWriter RuleWriter) (Summary, error) {
	var s Summary
	for _, u := range f.Users {
		user := &models.User{Reference: strings.TrimSpace(u.Reference), FirstName: u.FirstName, LastName: u.LastName}
		if err := docs.SaveUser(ctx, user); err != nil {
			return s, fmt.Errorf("failed to save user %s: %w", user.Reference, err)
		}
		s.Users++
	}
	for _, d := range f.Documents {
		doc := d.document()
		if err := docs.SaveDocument(ctx, doc); err != nil {
			return s, err
		}
		s.Documents++
		s.Objects += len(doc.Objects)
	}
	if ruleWriter == nil {
		return s, nil
	}
	for _, r := range f.Rights {
		rule, err := r.rule()
		if err != nil {
			return s, err
		}
		if err := ruleWriter.AddRule(ctx, rule); err != nil {
			return s, fmt.Errorf("failed to add rule: %w", err)
		}
		s.Rights++
	}
	return s, nil
}
