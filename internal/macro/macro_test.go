package macro

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/rendering"
)

var march3 = time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)

func panels(t *testing.T, blocks []*rendering.Block) []*rendering.Block {
	t.Helper()
	if len(blocks) != 1 {
		t.Fatalf("expected exactly one root block, got %d", len(blocks))
	}
	return blocks[0].Children
}

func panelTitle(panel *rendering.Block) string {
	words := rendering.Find([]*rendering.Block{panel.Children[0]}, func(b *rendering.Block) bool {
		return b.Kind == rendering.KindWord
	})
	if len(words) == 0 {
		return ""
	}
	return words[0].Text
}

func TestExecute_TypeWithoutLocation(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		env.store.addDoc("Blog."+n, n, "", march3)
	}
	env.queries.rows = []string{"Blog.A", "Blog.B", "Blog.C", "Blog.D", "Blog.E"}
	env.auth.deny["Blog.C"] = true

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"
	params.Limit = 3

	blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var titles []string
	for _, p := range panels(t, blocks) {
		titles = append(titles, panelTitle(p))
	}
	if want := []string{"A", "B", "D"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("panel titles = %v, want %v", titles, want)
	}

	q := env.queries.last(t)
	if want := "FROM doc.object(Blog.BlogPostClass) AS obj ORDER BY doc.date DESC"; q.statement != want {
		t.Errorf("statement = %q, want %q", q.statement, want)
	}
	if len(q.binds) != 0 {
		t.Errorf("expected no bound values, got %v", q.binds)
	}
	if strings.Contains(q.statement, "LIKE") {
		t.Error("statement must not carry a location predicate")
	}
}

func TestExecute_LocationWithDots(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("MyApp.DataClass")

	params := DefaultParameters()
	params.Space = "Apps.My.App"
	params.XClass = "MyApp.DataClass"
	params.Sort = SortAlpha

	if _, err := env.macro.Execute(context.Background(), params, "", TransformationContext{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	q := env.queries.last(t)
	if got := q.binds["prefix"]; got != "Apps!.My!.App.%" {
		t.Errorf("prefix = %v, want %q", got, "Apps!.My!.App.%")
	}
	want := "FROM doc.object(MyApp.DataClass) AS obj WHERE doc.fullName LIKE :prefix ESCAPE '!' ORDER BY doc.title"
	if q.statement != want {
		t.Errorf("statement = %q, want %q", q.statement, want)
	}
}

func TestExecute_ApplicationInferredFromLocation(t *testing.T) {
	env := newTestEnv(t)
	home := env.store.addDoc("Apps.Tickets.WebHome", "Tickets", "", march3)
	home.Objects = []*models.XObject{{
		ClassName:  LiveTableClass,
		Properties: map[string]string{"class": "Tickets.TicketClass"},
	}}
	env.store.addDoc("Tickets.T1", "First", "", march3)
	env.queries.rows = []string{"Tickets.T1"}

	params := DefaultParameters()
	params.Space = "Apps.Tickets"

	blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if n := len(panels(t, blocks)); n != 1 {
		t.Errorf("expected 1 panel, got %d", n)
	}

	q := env.queries.last(t)
	if want := "FROM doc.object(Tickets.TicketClass) AS obj ORDER BY doc.date DESC"; q.statement != want {
		t.Errorf("statement = %q, want %q", q.statement, want)
	}
	if _, ok := q.binds["prefix"]; ok {
		t.Error("location predicate must be dropped once the class is inferred")
	}
	if params.Space != "Apps.Tickets" {
		t.Error("caller parameters were modified")
	}
}

func TestSelect_Paging(t *testing.T) {
	rows := make([]string, 1500)
	for i := range rows {
		rows[i] = fmt.Sprintf("Data.D%04d", i)
	}

	tests := []struct {
		name      string
		limit     int
		deny      func(i int) bool
		wantPages []page
		wantCount int
	}{
		{
			name:      "default limit uses small pages",
			limit:     100,
			deny:      func(int) bool { return false },
			wantPages: []page{{0, 200}},
			wantCount: 100,
		},
		{
			name:      "large limit satisfied by first page",
			limit:     250,
			deny:      func(int) bool { return false },
			wantPages: []page{{0, 1000}},
			wantCount: 250,
		},
		{
			name:      "large limit continues after first page",
			limit:     250,
			deny:      func(i int) bool { return i%10 != 0 },
			wantPages: []page{{0, 1000}, {1000, 1000}},
			wantCount: 150,
		},
		{
			name:      "small pages continue until a short page",
			limit:     100,
			deny:      func(i int) bool { return i%100 != 0 },
			wantPages: []page{{0, 200}, {200, 200}, {400, 200}, {600, 200}, {800, 200}, {1000, 200}, {1200, 200}, {1400, 200}},
			wantCount: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.queries.rows = rows
			for i, r := range rows {
				if tt.deny(i) {
					env.auth.deny[r] = true
				}
			}
			intent := &Intent{Params: DefaultParameters()}
			intent.Params.XClass = "Data.DataClass"
			intent.Params.Limit = tt.limit
			intent.Class.Spaces, intent.Class.Name = []string{"Data"}, "DataClass"

			selected, err := env.macro.Select(context.Background(), intent)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if len(selected) != tt.wantCount {
				t.Errorf("selected %d documents, want %d", len(selected), tt.wantCount)
			}
			if got := env.queries.last(t).pages; !reflect.DeepEqual(got, tt.wantPages) {
				t.Errorf("pages = %v, want %v", got, tt.wantPages)
			}
			for _, name := range names(selected) {
				if env.auth.deny[name] {
					t.Errorf("denied document %s was selected", name)
				}
			}
		})
	}
}

func TestExecute_Footer(t *testing.T) {
	tests := []struct {
		name          string
		displayAuthor bool
		displayDate   bool
		want          string
	}{
		{"author and date", true, true, "Modified by Jane Doe, on 03 March 2024"},
		{"author only", true, false, "Modified by Jane Doe"},
		{"date only", false, true, "Modified on 03 March 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.addClass("Blog.BlogPostClass")
			env.store.addDoc("Blog.Post", "Post", "XWiki.JaneDoe", march3)
			env.queries.rows = []string{"Blog.Post"}
			env.users["XWiki.JaneDoe"] = "Jane Doe"

			params := DefaultParameters()
			params.XClass = "Blog.BlogPostClass"
			params.DisplayAuthor = tt.displayAuthor
			params.DisplayDate = tt.displayDate

			blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{Locale: "en"})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			footers := rendering.Find(blocks, func(b *rendering.Block) bool {
				return strings.Contains(b.Param("class"), "xwiki-accordion-footer")
			})
			if len(footers) != 1 {
				t.Fatalf("expected 1 footer, got %d", len(footers))
			}
			if got := footers[0].Children[0].Text; got != tt.want {
				t.Errorf("footer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecute_FooterLocalized(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")
	env.store.addDoc("Blog.Post", "Post", "XWiki.JaneDoe", march3)
	env.queries.rows = []string{"Blog.Post"}
	env.users["XWiki.JaneDoe"] = "Jane Doe"

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"

	blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{Locale: "fr_FR"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	footers := rendering.Find(blocks, func(b *rendering.Block) bool {
		return strings.Contains(b.Param("class"), "xwiki-accordion-footer")
	})
	if want := "Modifié par Jane Doe, le 03 mars 2024"; footers[0].Children[0].Text != want {
		t.Errorf("footer = %q, want %q", footers[0].Children[0].Text, want)
	}
}

func TestExecute_WrongParameters(t *testing.T) {
	tests := []struct {
		name   string
		params func() Parameters
		setup  func(env *testEnv)
	}{
		{
			name:   "nothing given",
			params: DefaultParameters,
		},
		{
			name: "location without application",
			params: func() Parameters {
				p := DefaultParameters()
				p.Space = "Apps.Empty"
				return p
			},
			setup: func(env *testEnv) {
				env.store.addDoc("Apps.Empty.WebHome", "Empty", "", march3)
			},
		},
		{
			name: "location without landing page",
			params: func() Parameters {
				p := DefaultParameters()
				p.Space = "Apps.Missing"
				return p
			},
		},
		{
			name: "unknown class without location",
			params: func() Parameters {
				p := DefaultParameters()
				p.XClass = "No.SuchClass"
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}

			blocks, err := env.macro.Execute(context.Background(), tt.params(), "", TransformationContext{Locale: "en"})
			if !IsKind(err, KindWrongParameters) {
				t.Fatalf("expected WRONG_PARAMETERS, got %v", err)
			}
			if blocks != nil {
				t.Error("no tree must be produced on failure")
			}
			var me *Error
			errors.As(err, &me)
			want, _ := env.bundle.Message("rendering.macro.docaccordion.wrong_parameters", "en")
			if me.Message != want {
				t.Errorf("message = %q, want %q", me.Message, want)
			}
			if len(env.skin.uses) != 0 {
				t.Errorf("assets registered on failure: %v", env.skin.uses)
			}
			if len(env.queries.queries) != 0 {
				t.Error("no query must run on failure")
			}
		})
	}
}

func TestExecute_ExecutionFailure(t *testing.T) {
	boom := errors.New("database is locked")

	t.Run("query fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addClass("Blog.BlogPostClass")
		env.queries.err = boom

		params := DefaultParameters()
		params.XClass = "Blog.BlogPostClass"
		params.Limit = 3

		_, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
		if !IsKind(err, KindExecutionFailure) {
			t.Fatalf("expected EXECUTION_FAILURE, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Error("underlying error not wrapped")
		}
		if !strings.Contains(err.Error(), "[space: , xclass: Blog.BlogPostClass, sort: CHRONO, limit: 3]") {
			t.Errorf("parameter snapshot missing from %q", err.Error())
		}
		if len(env.skin.uses) != 0 {
			t.Errorf("assets registered on failure: %v", env.skin.uses)
		}
	})

	t.Run("authorization fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addClass("Blog.BlogPostClass")
		env.queries.rows = []string{"Blog.A"}
		env.auth.err = boom

		params := DefaultParameters()
		params.XClass = "Blog.BlogPostClass"

		_, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
		if !IsKind(err, KindExecutionFailure) || !errors.Is(err, boom) {
			t.Fatalf("expected EXECUTION_FAILURE wrapping %v, got %v", boom, err)
		}
	})

	t.Run("store fails during discovery", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addDoc("Apps.Tickets.WebHome", "Tickets", "", march3)
		env.store.failOn["Apps.Tickets.WebHome"] = boom

		params := DefaultParameters()
		params.Space = "Apps.Tickets"

		_, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
		if !IsKind(err, KindExecutionFailure) || !errors.Is(err, boom) {
			t.Fatalf("expected EXECUTION_FAILURE wrapping %v, got %v", boom, err)
		}
	})

	t.Run("store fails checking class", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.existsErr = boom

		params := DefaultParameters()
		params.XClass = "Blog.BlogPostClass"

		_, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
		if !IsKind(err, KindExecutionFailure) {
			t.Fatalf("expected EXECUTION_FAILURE, got %v", err)
		}
	})
}

func TestExecute_InlineMode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.macro.Execute(context.Background(), DefaultParameters(), "", TransformationContext{Inline: true})
	if !IsKind(err, KindWrongParameters) {
		t.Fatalf("expected WRONG_PARAMETERS, got %v", err)
	}
	if env.macro.SupportsInlineMode() {
		t.Error("macro must not support inline mode")
	}
}

func TestExecute_PanelFailureIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	env := newTestEnv(t, WithLogger(zap.New(core)))
	env.store.addClass("Blog.BlogPostClass")
	env.store.addDoc("Blog.A", "A", "", march3)
	env.store.addDoc("Blog.B", "B", "", march3)
	env.store.addDoc("Blog.C", "C", "", march3)
	env.store.failOn["Blog.A"] = errors.New("corrupted")
	env.queries.rows = []string{"Blog.A", "Blog.B", "Blog.C"}

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"

	blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	ps := panels(t, blocks)
	if len(ps) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(ps))
	}
	if !strings.Contains(ps[0].Children[0].Param("class"), "openFirstAccordion") {
		t.Error("first emitted panel must be open")
	}

	entries := logs.FilterMessage("failed to generate accordion panel").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 panel failure log, got %d", len(entries))
	}
	if doc := entries[0].ContextMap()["document"]; doc != "Blog.A" {
		t.Errorf("logged document = %v, want Blog.A", doc)
	}
}

func TestExecute_UnknownSyntaxSkipsPanels(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")
	env.store.addDoc("Blog.A", "A", "", march3)
	env.queries.rows = []string{"Blog.A"}

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"

	blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{Syntax: "docbook/4.4"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if n := len(panels(t, blocks)); n != 0 {
		t.Errorf("expected no panels, got %d", n)
	}
}

func TestExecute_RegistersAssetsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"

	if _, err := env.macro.Execute(context.Background(), params, "", TransformationContext{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if want := []string{ScriptResource, StylesheetResource}; !reflect.DeepEqual(env.skin.uses, want) {
		t.Errorf("assets = %v, want %v", env.skin.uses, want)
	}
}

func TestExecute_ApplicationAlias(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Tickets.TicketClass")
	env.bundle.Set("", "rendering.macro.docaccordion.application.tickets", "Tickets.TicketClass")

	params := DefaultParameters()
	params.XClass = "Tickets"

	intent, err := env.macro.Normalize(context.Background(), params, "en")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got := intent.Class.LocalString(); got != "Tickets.TicketClass" {
		t.Errorf("class = %q, want Tickets.TicketClass", got)
	}
	if params.XClass != "Tickets" {
		t.Error("caller parameters were modified")
	}

	again, err := env.macro.Normalize(context.Background(), intent.Params, "en")
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}
	if diff := cmp.Diff(intent, again); diff != "" {
		t.Errorf("alias resolution is not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")
	home := env.store.addDoc("Apps.Blog.WebHome", "Blog", "", march3)
	home.Objects = []*models.XObject{{
		ClassName:  LiveTableClass,
		Properties: map[string]string{"class": "Blog.BlogPostClass"},
	}}

	tests := []struct {
		name           string
		space, xclass  string
		limit          int
		wantClass      string
		wantLocation   string
		wantDiscovered bool
		wantLimit      int
	}{
		{"class and location kept", "Blog", "Blog.BlogPostClass", 5, "Blog.BlogPostClass", "Blog", false, 5},
		{"missing class discovered", "Apps.Blog", "No.SuchClass", 5, "Blog.BlogPostClass", "", true, 5},
		{"limit clamped", "", "Blog.BlogPostClass", 0, "Blog.BlogPostClass", "", false, 1},
		{"negative limit clamped", "", "Blog.BlogPostClass", -4, "Blog.BlogPostClass", "", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			p.Space, p.XClass, p.Limit = tt.space, tt.xclass, tt.limit

			intent, err := env.macro.Normalize(context.Background(), p, "en")
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if got := intent.Class.LocalString(); got != tt.wantClass {
				t.Errorf("class = %q, want %q", got, tt.wantClass)
			}
			location := ""
			if intent.Location != nil {
				location = intent.Location.LocalString()
			}
			if location != tt.wantLocation {
				t.Errorf("location = %q, want %q", location, tt.wantLocation)
			}
			if intent.Discovered != tt.wantDiscovered {
				t.Errorf("discovered = %v, want %v", intent.Discovered, tt.wantDiscovered)
			}
			if intent.Params.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", intent.Params.Limit, tt.wantLimit)
			}
		})
	}
}

func TestExecute_Invariants(t *testing.T) {
	tests := []struct {
		name      string
		openFirst bool
		author    bool
		date      bool
		maxHeight int
	}{
		{"defaults", true, true, true, 0},
		{"closed without footer", false, false, false, 0},
		{"fixed height", true, false, true, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.addClass("Blog.BlogPostClass")
			var rows []string
			for i := 0; i < 5; i++ {
				name := fmt.Sprintf("Blog.P%d", i)
				env.store.addDoc(name, name, "XWiki.Admin", march3)
				rows = append(rows, name)
			}
			env.queries.rows = rows

			params := DefaultParameters()
			params.XClass = "Blog.BlogPostClass"
			params.OpenFirstAccordion = tt.openFirst
			params.DisplayAuthor = tt.author
			params.DisplayDate = tt.date
			params.AccordionMaxHeight = tt.maxHeight

			blocks, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			root := blocks[0]
			rootID := root.Param("id")

			ids := map[string]bool{}
			for _, b := range rendering.Find(blocks, func(b *rendering.Block) bool { return b.Param("id") != "" }) {
				id := b.Param("id")
				if ids[id] {
					t.Errorf("duplicate id %q", id)
				}
				ids[id] = true
			}

			for i, panel := range root.Children {
				heading := panel.Children[0]
				open := strings.Contains(heading.Param("class"), "openFirstAccordion")
				if open != (tt.openFirst && i == 0) {
					t.Errorf("panel %d: openFirstAccordion = %v", i, open)
				}

				link := heading.Children[0].Children[0]
				if link.Param("data-parent") != "#"+rootID {
					t.Errorf("panel %d: data-parent %q does not target the root", i, link.Param("data-parent"))
				}
				if !ids[link.Param("aria-controls")] {
					t.Errorf("panel %d: aria-controls %q does not resolve", i, link.Param("aria-controls"))
				}
				if !ids[strings.TrimPrefix(link.Reference.Reference, "#")] {
					t.Errorf("panel %d: href %q does not resolve", i, link.Reference.Reference)
				}

				body := panel.Children[1].Children[0]
				style, hasStyle := body.Params["style"]
				if tt.maxHeight == 0 && hasStyle {
					t.Errorf("panel %d: unexpected style %q", i, style)
				}
				if tt.maxHeight > 0 && style != fmt.Sprintf("overflow: scroll;max-height: %dpx", tt.maxHeight) {
					t.Errorf("panel %d: style = %q", i, style)
				}

				footers := 0
				for _, c := range body.Children {
					if strings.Contains(c.Param("class"), "xwiki-accordion-footer") {
						footers++
					}
				}
				wantFooters := 0
				if tt.author || tt.date {
					wantFooters = 1
				}
				if footers != wantFooters {
					t.Errorf("panel %d: %d footers, want %d", i, footers, wantFooters)
				}
			}
		})
	}
}

func TestExecute_TreeShape(t *testing.T) {
	env := newTestEnv(t)
	env.store.addClass("Blog.BlogPostClass")
	env.store.addDoc("Blog.Post", "My post", "XWiki.JaneDoe", march3)
	env.queries.rows = []string{"Blog.Post"}
	env.users["XWiki.JaneDoe"] = "Jane Doe"

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"
	params.AccordionMaxHeight = 200

	got, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []*rendering.Block{
		rendering.NewGroup(map[string]string{
			"class":                "panel-group xwiki-accordion",
			"role":                 "tablist",
			"aria-multiselectable": "true",
			"id":                   "accordionid0001",
		},
			rendering.NewGroup(map[string]string{"class": "panel panel-default"},
				rendering.NewGroup(map[string]string{"class": "panel-heading openFirstAccordion", "id": "accordionHeadingid0002"},
					rendering.NewHeader(4, map[string]string{"class": "panel-title"},
						rendering.NewLink(rendering.ResourceReference{Reference: "#collapseid0002", Type: rendering.ResourcePath}, true,
							map[string]string{
								"role":          "button",
								"data-toggle":   "collapse",
								"data-parent":   "#accordionid0001",
								"aria-expanded": "true",
								"aria-controls": "collapseid0002",
								"rel":           "http://wiki.test/get/Blog.Post",
							},
							rendering.NewWord("My post"),
						),
					),
				),
				rendering.NewGroup(map[string]string{
					"class":           "panel-collapse collapse",
					"id":              "collapseid0002",
					"role":            "tabpanel",
					"aria-labelledby": "headingid0002",
				},
					rendering.NewGroup(map[string]string{"class": "panel-body", "style": "overflow: scroll;max-height: 200px"},
						rendering.NewGroup(map[string]string{"class": "xwiki-accordion-content"}, rendering.NewWord("")),
						rendering.NewGroup(map[string]string{"class": "text-muted text-right xwiki-accordion-footer"},
							rendering.NewWord("Modified by Jane Doe, on 03 March 2024")),
					),
				),
			),
		),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Deterministic(t *testing.T) {
	env := newTestEnv(t, WithIDGenerator(RandomID))
	env.store.addClass("Blog.BlogPostClass")
	for i := 0; i < 3; i++ {
		env.store.addDoc(fmt.Sprintf("Blog.P%d", i), fmt.Sprintf("Post %d", i), "XWiki.Admin", march3)
	}
	env.queries.rows = []string{"Blog.P0", "Blog.P1", "Blog.P2"}

	params := DefaultParameters()
	params.XClass = "Blog.BlogPostClass"

	first, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	second, err := env.macro.Execute(context.Background(), params, "", TransformationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	stripIDs := cmp.Transformer("stripIDs", func(in map[string]string) map[string]string {
		out := make(map[string]string, len(in))
		for k, v := range in {
			switch k {
			case "id", "data-parent", "aria-controls", "aria-labelledby":
				v = ""
			}
			out[k] = v
		}
		return out
	})
	ignoreHref := cmpopts.IgnoreFields(rendering.ResourceReference{}, "Reference")

	if diff := cmp.Diff(first, second, stripIDs, ignoreHref); diff != "" {
		t.Errorf("trees differ beyond ids (-first +second):\n%s", diff)
	}
	if cmp.Equal(first, second) {
		t.Error("expected random id suffixes to differ between runs")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Dependencies{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}
