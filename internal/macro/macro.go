// Package macro implements the document accordion macro: it selects the wiki
// documents carrying an object of an application class, keeps the ones the
// reader may view, and lays them out as collapsible panels.
package macro

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/query"
	"github.com/hyperjump/docaccordion/internal/rendering"
)

// Resources registered on every page that shows an accordion.
const (
	ScriptResource     = "docaccordion.js"
	StylesheetResource = "docaccordion.css"
)

// TransformationContext describes the page the macro is rendered into.
type TransformationContext struct {
	// Syntax is the target syntax of titles; xhtml/1.0 when empty.
	Syntax string
	// Inline is set when the macro is invoked inside a paragraph.
	Inline bool
	// Locale of the reader.
	Locale string
}

// Dependencies are the host services used by the macro.
type Dependencies struct {
	Store     DocumentStore
	Queries   query.Manager
	Rights    Authorizer
	Localizer Localizer
	Users     UserFormatter
	Dates     DateFormatter
	Skin      SkinExtensions
}

// Option configures a Macro.
type Option func(*Macro)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Macro) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBaseURL sets the address prefix of document links.
func WithBaseURL(baseURL string) Option {
	return func(m *Macro) {
		m.baseURL = baseURL
	}
}

// WithIDGenerator replaces the random id suffix generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(m *Macro) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// Macro renders document accordions. It holds no per-invocation state and is
// safe for concurrent use.
type Macro struct {
	store     DocumentStore
	queries   query.Manager
	rights    Authorizer
	localizer Localizer
	users     UserFormatter
	dates     DateFormatter
	skin      SkinExtensions
	baseURL   string
	newID     IDGenerator
	logger    *zap.Logger
}

// New creates a macro. Skin may be nil; every other dependency is required.
func New(deps Dependencies, opts ...Option) (*Macro, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("macro: document store is required")
	case deps.Queries == nil:
		return nil, errors.New("macro: query manager is required")
	case deps.Rights == nil:
		return nil, errors.New("macro: authorizer is required")
	case deps.Localizer == nil:
		return nil, errors.New("macro: localizer is required")
	case deps.Users == nil:
		return nil, errors.New("macro: user formatter is required")
	case deps.Dates == nil:
		return nil, errors.New("macro: date formatter is required")
	}

	m := &Macro{
		store:     deps.Store,
		queries:   deps.Queries,
		rights:    deps.Rights,
		localizer: deps.Localizer,
		users:     deps.Users,
		dates:     deps.Dates,
		skin:      deps.Skin,
		newID:     RandomID,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SupportsInlineMode reports whether the macro may be used inside a paragraph.
func (m *Macro) SupportsInlineMode() bool {
	return false
}

// Execute runs the macro and returns a single root block. Errors are *Error.
// The macro has no content; content is ignored.
func (m *Macro) Execute(ctx context.Context, params Parameters, content string, tctx TransformationContext) ([]*rendering.Block, error) {
	if tctx.Inline {
		return nil, wrongParameters("the docaccordion macro does not support inline mode")
	}
	if tctx.Syntax == "" {
		tctx.Syntax = models.SyntaxXHTML10
	}

	intent, err := m.Normalize(ctx, params, tctx.Locale)
	if err != nil {
		m.logFailure(err, params)
		return nil, err
	}

	selected, err := m.Select(ctx, intent)
	if err != nil {
		m.logFailure(err, intent.Params)
		return nil, executionFailure(fmt.Sprintf("failed to get accordions for the parameters %s", intent.Params), err)
	}

	root := m.Emit(ctx, selected, intent.Params, tctx)

	if m.skin != nil {
		m.skin.Use(ctx, ScriptResource)
		m.skin.Use(ctx, StylesheetResource)
	}

	m.logger.Debug("accordion rendered",
		zap.String("class", intent.Class.LocalString()),
		zap.Int("selected", len(selected)),
		zap.Int("panels", len(root.Children)))
	return []*rendering.Block{root}, nil
}

func (m *Macro) logFailure(err error, p Parameters) {
	if IsKind(err, KindWrongParameters) {
		m.logger.Debug("docaccordion parameters rejected", zap.Stringer("parameters", p), zap.Error(err))
		return
	}
	m.logger.Error("failed to get accordions",
		zap.String("space", p.Space),
		zap.String("xclass", p.XClass),
		zap.String("sort", string(p.Sort)),
		zap.Int("limit", p.Limit),
		zap.Error(err))
}
