package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/config"
	"github.com/hyperjump/docaccordion/internal/format"
	"github.com/hyperjump/docaccordion/internal/i18n"
	"github.com/hyperjump/docaccordion/internal/macro"
	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/query"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rights"
	"github.com/hyperjump/docaccordion/internal/skinx"
	"github.com/hyperjump/docaccordion/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	rightsService, err := rights.NewService(store.DB())
	if err != nil {
		t.Fatal(err)
	}
	bundle, err := i18n.NewBundle("", "en", nil)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC)
	docs := []*models.Document{
		{Reference: reference.ResolveDocument("Blog.BlogPostClass"), Title: "Blog post class"},
		{
			Reference: reference.ResolveDocument("Blog.Welcome"),
			Title:     "Welcome",
			Content:   "# Hello\n\nFirst *post*",
			Syntax:    models.SyntaxMarkdown12,
			Author:    "XWiki.JaneDoe",
			UpdatedAt: when,
			Objects:   []*models.XObject{{ClassName: "Blog.BlogPostClass"}},
		},
		{
			Reference: reference.ResolveDocument("Blog.Private"),
			Title:     "Private",
			Content:   "secret",
			Author:    "XWiki.JaneDoe",
			UpdatedAt: when.Add(-time.Hour),
			Objects:   []*models.XObject{{ClassName: "Blog.BlogPostClass"}},
		},
	}
	for _, d := range docs {
		if err := store.SaveDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.SaveUser(ctx, &models.User{Reference: "XWiki.JaneDoe", FirstName: "Jane", LastName: "Doe"}); err != nil {
		t.Fatal(err)
	}
	rules := []rights.Rule{
		{Subject: rights.Guest, Scope: "Blog.Private", ScopeType: rights.ScopeDocument, Right: rights.View},
		{Subject: "XWiki.Admin", ScopeType: rights.ScopeWiki, Right: rights.Delete, Allow: true},
	}
	for _, rule := range rules {
		if err := rightsService.AddRule(ctx, rule); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	m, err := macro.New(macro.Dependencies{
		Store:     store,
		Queries:   query.NewSQLiteManager(store.DB()),
		Rights:    rightsService,
		Localizer: bundle,
		Users:     format.NewUserFormatter(store),
		Dates:     format.NewDateFormatter(bundle, time.UTC),
		Skin:      skinx.Extensions{},
	}, macro.WithBaseURL(cfg.Server.BaseURL))
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(m, store, rightsService, cfg, zap.NewNop())
}

func serve(srv *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("status: got %q", out["status"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents int64 `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Documents != 3 {
		t.Errorf("documents: got %d, want 3", out.Documents)
	}
}

func TestHandleAccordionJSON(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		user       string
		wantTitles []string
	}{
		{"guest", "", []string{"Welcome"}},
		{"editor sees private", "XWiki.Editor", []string{"Welcome", "Private"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/macro/docaccordion.json?xclass=Blog.BlogPostClass", nil)
			if tt.user != "" {
				r.Header.Set(UserHeader, tt.user)
			}
			w := serve(srv, r)
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
			}
			body := w.Body.String()
			for _, title := range tt.wantTitles {
				if !strings.Contains(body, `"text":"`+title+`"`) {
					t.Errorf("missing panel %q in %s", title, body)
				}
			}
			if tt.user == "" && strings.Contains(body, `"text":"Private"`) {
				t.Error("guest must not see the private document")
			}
			if !strings.Contains(body, `"scripts":["docaccordion.js"]`) {
				t.Errorf("scripts not reported: %s", body)
			}
		})
	}
}

func TestHandleAccordionPage(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/macro/docaccordion?xclass=Blog.BlogPostClass&accordionMaxHeight=120", nil)
	r.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.5")
	w := serve(srv, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}

	page := w.Body.String()
	for _, want := range []string{
		`<html lang="fr-FR">`,
		`<script src="/skin/docaccordion.js"></script>`,
		`<link href="/skin/docaccordion.css" rel="stylesheet"/>`,
		`class="panel-group xwiki-accordion"`,
		`rel="http://localhost:8080/get/Blog.Welcome"`,
		`style="overflow: scroll;max-height: 120px"`,
		`Modifié par Jane Doe, le 03 mars 2024`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHandleAccordion_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"unknown parameter", "/macro/docaccordion.json?color=red", http.StatusBadRequest},
		{"bad limit", "/macro/docaccordion.json?xclass=Blog.BlogPostClass&limit=x", http.StatusBadRequest},
		{"no class", "/macro/docaccordion.json?space=Nowhere", http.StatusBadRequest},
		{"no class page", "/macro/docaccordion?space=Nowhere", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		user       string
		wantStatus int
		wantBody   string
	}{
		{"markdown body", "/get/Blog.Welcome", "", http.StatusOK, "<h1>Hello</h1>"},
		{"forbidden", "/get/Blog.Private", "", http.StatusForbidden, ""},
		{"allowed user", "/get/Blog.Private", "XWiki.Editor", http.StatusOK, "secret"},
		{"missing", "/get/Blog.Missing", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.user != "" {
				r.Header.Set(UserHeader, tt.user)
			}
			w := serve(srv, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleListDocuments(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		user       string
		wantStatus int
		wantNames  []string
		wantMore   bool
	}{
		{"guest skips private", "/api/v1/documents", "", http.StatusOK, []string{"Blog.BlogPostClass", "Blog.Welcome"}, false},
		{"user sees private", "/api/v1/documents", "XWiki.Editor", http.StatusOK, []string{"Blog.BlogPostClass", "Blog.Welcome", "Blog.Private"}, false},
		{"paged", "/api/v1/documents?offset=1&limit=1", "XWiki.Editor", http.StatusOK, []string{"Blog.Welcome"}, true},
		{"page of hidden documents", "/api/v1/documents?offset=2&limit=1", "", http.StatusOK, []string{}, true},
		{"bad offset", "/api/v1/documents?offset=-1", "", http.StatusBadRequest, nil, false},
		{"bad limit", "/api/v1/documents?limit=zero", "", http.StatusBadRequest, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.user != "" {
				r.Header.Set(UserHeader, tt.user)
			}
			w := serve(srv, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Documents []documentSummary `json:"documents"`
				More      bool              `json:"more"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			names := []string{}
			for _, d := range resp.Documents {
				names = append(names, d.FullName)
			}
			if strings.Join(names, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("documents: got %v, want %v", names, tt.wantNames)
			}
			if resp.More != tt.wantMore {
				t.Errorf("more: got %v, want %v", resp.More, tt.wantMore)
			}
		})
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		user       string
		wantStatus int
	}{
		{"guest lacks delete right", "/api/v1/documents/Blog.Welcome", "", http.StatusForbidden},
		{"view right is not enough", "/api/v1/documents/Blog.Welcome", "XWiki.Editor", http.StatusForbidden},
		{"missing", "/api/v1/documents/Blog.Missing", "XWiki.Admin", http.StatusNotFound},
		{"deleted", "/api/v1/documents/Blog.Welcome", "XWiki.Admin", http.StatusOK},
		{"deleted twice", "/api/v1/documents/Blog.Welcome", "XWiki.Admin", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodDelete, tt.target, nil)
			if tt.user != "" {
				r.Header.Set(UserHeader, tt.user)
			}
			w := serve(srv, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/get/Blog.Welcome", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted document still served: %d", w.Code)
	}
}

func TestHandleSkin(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/skin/docaccordion.js", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("content type: got %q", ct)
	}

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/skin/missing.js", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleDescriptor(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, httptest.NewRequest(http.MethodGet, "/macro/docaccordion/descriptor?language=en", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var d macro.Descriptor
	if err := json.NewDecoder(w.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.ID != macro.ID || len(d.Parameters) != 8 {
		t.Errorf("unexpected descriptor: %+v", d)
	}
}

func TestLocale(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		target, acceptLanguage, want string
	}{
		{"/?language=de", "fr", "de"},
		{"/", "fr-CA,fr;q=0.8", "fr-CA"},
		{"/", "*", "en"},
		{"/", "", "en"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if tt.acceptLanguage != "" {
			r.Header.Set("Accept-Language", tt.acceptLanguage)
		}
		if got := srv.locale(r); got != tt.want {
			t.Errorf("locale(%q, %q) = %q, want %q", tt.target, tt.acceptLanguage, got, tt.want)
		}
	}
}
