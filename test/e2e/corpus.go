// Package e2e provides end-to-end tests rendering accordions over a large generated wiki.
package e2e

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/docaccordion/internal/fixture"
)

const (
	// EntryClass is the class every corpus entry carries an object of.
	EntryClass = "Corpus.EntryClass"
	// RestrictedSpace holds entries guests may not view.
	RestrictedSpace = "Corpus.Restricted"
	teams           = 5
)

// Entry is a generated document of the corpus.
type Entry struct {
	FullName   string
	Space      string
	Title      string
	Author     string
	Updated    time.Time
	Restricted bool
}

// Corpus holds the generated entries and the fixture that stores them.
type Corpus struct {
	Entries []Entry
	Fixture *fixture.Fixture
}

var topics = []string{
	"Backup policy", "Coffee machine", "Deployment checklist", "Expense report",
	"Firewall rules", "Holiday calendar", "Onboarding", "Printer setup",
	"Release notes", "VPN access",
}

// BuildCorpus returns public entries spread over team spaces and restricted entries
// that are newer than every public one, so a guest listing by date has to page past them.
func BuildCorpus(public, restricted int) *Corpus {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c := &Corpus{Fixture: &fixture.Fixture{
		Users: []fixture.User{
			{Reference: "XWiki.JaneDoe", FirstName: "Jane", LastName: "Doe"},
			{Reference: "XWiki.JohnSmith", FirstName: "John", LastName: "Smith"},
		},
		Rights: []fixture.Rule{
			{Subject: "*", Scope: RestrictedSpace, ScopeType: "space", Right: "view", Allow: false},
		},
		Documents: []fixture.Document{{Name: EntryClass, Title: "Entry class"}},
	}}

	for i := 0; i < public; i++ {
		// stride 7 is coprime with every count used here, so dates are a permutation of the indexes
		c.add(Entry{
			FullName: fmt.Sprintf("Corpus.Team%d.Entry%03d", i%teams, i),
			Space:    fmt.Sprintf("Corpus.Team%d", i%teams),
			Title:    fmt.Sprintf("%s %03d", topics[i%len(topics)], i),
			Author:   authorOf(i),
			Updated:  base.Add(time.Duration((i*7)%public) * time.Hour),
		})
	}
	newest := base.Add(time.Duration(public) * time.Hour)
	for i := 0; i < restricted; i++ {
		c.add(Entry{
			FullName:   fmt.Sprintf("%s.Secret%03d", RestrictedSpace, i),
			Space:      RestrictedSpace,
			Title:      fmt.Sprintf("Secret %03d", i),
			Author:     authorOf(i),
			Updated:    newest.Add(time.Duration(i) * time.Hour),
			Restricted: true,
		})
	}
	return c
}

func authorOf(i int) string {
	if i%2 == 0 {
		return "XWiki.JaneDoe"
	}
	return "XWiki.JohnSmith"
}

func (c *Corpus) add(e Entry) {
	c.Entries = append(c.Entries, e)
	c.Fixture.Documents = append(c.Fixture.Documents, fixture.Document{
		Name:    e.FullName,
		Title:   e.Title,
		Content: "# " + e.Title + "\n\nGenerated entry.\n",
		Author:  e.Author,
		Created: e.Updated.Add(-24 * time.Hour),
		Updated: e.Updated,
		Objects: []fixture.Object{{Class: EntryClass, Properties: map[string]string{"team": e.Space}}},
	})
}

// Expected returns the full names a guest should see, in order, for an
// accordion over space (empty for the whole wiki) sorted by date or by title.
func (c *Corpus) Expected(space string, alpha bool, limit int) []string {
	var visible []Entry
	for _, e := range c.Entries {
		if e.Restricted {
			continue
		}
		if space != "" && !strings.HasPrefix(e.FullName, space+".") {
			continue
		}
		visible = append(visible, e)
	}
	sort.Slice(visible, func(i, j int) bool {
		if alpha {
			return visible[i].Title < visible[j].Title
		}
		return visible[i].Updated.After(visible[j].Updated)
	})
	if len(visible) > limit {
		visible = visible[:limit]
	}
	names := make([]string, len(visible))
	for i, e := range visible {
		names[i] = e.FullName
	}
	return names
}
