package macro

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hyperjump/docaccordion/internal/format"
	"github.com/hyperjump/docaccordion/internal/i18n"
	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/query"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rights"
	"github.com/hyperjump/docaccordion/internal/storage"
)

type fakeStore struct {
	docs      map[string]*models.Document
	failOn    map[string]error
	existsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*models.Document{}, failOn: map[string]error{}}
}

func (s *fakeStore) addClass(name string) {
	s.docs[name] = &models.Document{Reference: reference.ResolveDocument(name)}
}

func (s *fakeStore) addDoc(name, title, author string, updated time.Time) *models.Document {
	doc := &models.Document{
		Reference: reference.ResolveDocument(name),
		Title:     title,
		Author:    author,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
	s.docs[name] = doc
	return doc
}

func (s *fakeStore) Exists(ctx context.Context, ref reference.DocumentReference) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.docs[ref.LocalString()]
	return ok, nil
}

func (s *fakeStore) GetDocument(ctx context.Context, ref reference.DocumentReference) (*models.Document, error) {
	name := ref.LocalString()
	if err := s.failOn[name]; err != nil {
		return nil, err
	}
	doc, ok := s.docs[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

type page struct {
	offset, limit int
}

type fakeQueries struct {
	rows    []string
	err     error
	queries []*fakeQuery
}

func (f *fakeQueries) CreateQuery(statement, language string) (query.Query, error) {
	if language != query.XWQL {
		return nil, query.ErrUnsupportedLanguage
	}
	q := &fakeQuery{parent: f, statement: statement, binds: map[string]any{}}
	f.queries = append(f.queries, q)
	return q, nil
}

func (f *fakeQueries) last(t *testing.T) *fakeQuery {
	t.Helper()
	if len(f.queries) == 0 {
		t.Fatal("no query was created")
	}
	return f.queries[len(f.queries)-1]
}

type fakeQuery struct {
	parent    *fakeQueries
	statement string
	binds     map[string]any
	limit     int
	offset    int
	pages     []page
}

func (q *fakeQuery) BindValue(name string, value any) { q.binds[name] = value }
func (q *fakeQuery) SetLimit(limit int)                { q.limit = limit }
func (q *fakeQuery) SetOffset(offset int)              { q.offset = offset }

func (q *fakeQuery) Execute(ctx context.Context) ([]string, error) {
	q.pages = append(q.pages, page{offset: q.offset, limit: q.limit})
	if q.parent.err != nil {
		return nil, q.parent.err
	}
	rows := q.parent.rows
	if q.offset >= len(rows) {
		return nil, nil
	}
	end := min(q.offset+q.limit, len(rows))
	return rows[q.offset:end], nil
}

type fakeAuth struct {
	deny    map[string]bool
	err     error
	checked []string
}

func (a *fakeAuth) HasAccess(ctx context.Context, right rights.Right, ref reference.DocumentReference) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	a.checked = append(a.checked, ref.LocalString())
	return right == rights.View && !a.deny[ref.LocalString()], nil
}

type fakeUsers map[string]string

func (u fakeUsers) UserName(ctx context.Context, userRef, pattern string, link bool) string {
	return u[userRef]
}

type fakeSkin struct {
	uses []string
}

func (s *fakeSkin) Use(ctx context.Context, resource string) {
	s.uses = append(s.uses, resource)
}

func sequence() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%04d", n)
	}
}

type testEnv struct {
	store   *fakeStore
	queries *fakeQueries
	auth    *fakeAuth
	users   fakeUsers
	skin    *fakeSkin
	bundle  *i18n.Bundle
	macro   *Macro
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	bundle, err := i18n.NewBundle("", "en", nil)
	if err != nil {
		t.Fatalf("failed to create bundle: %v", err)
	}
	env := &testEnv{
		store:   newFakeStore(),
		queries: &fakeQueries{},
		auth:    &fakeAuth{deny: map[string]bool{}},
		users:   fakeUsers{},
		skin:    &fakeSkin{},
		bundle:  bundle,
	}
	opts = append([]Option{WithIDGenerator(sequence()), WithBaseURL("http://wiki.test")}, opts...)
	m, err := New(Dependencies{
		Store:     env.store,
		Queries:   env.queries,
		Rights:    env.auth,
		Localizer: bundle,
		Users:     env.users,
		Dates:     format.NewDateFormatter(bundle, time.UTC),
		Skin:      env.skin,
	}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	env.macro = m
	return env
}

func names(refs []reference.DocumentReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.LocalString()
	}
	return out
}
