package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/macro"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rendering"
	"github.com/hyperjump/docaccordion/internal/rights"
	"github.com/hyperjump/docaccordion/internal/skinx"
	"github.com/hyperjump/docaccordion/internal/storage"
)

// UserHeader carries the name of the authenticated user.
const UserHeader = "X-Wiki-User"

// query string names that are not macro parameters
const (
	languageParam = "language"
	syntaxParam   = "syntax"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docCount, err := s.storage.CountDocuments(r.Context())
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docCount,
		"config": map[string]interface{}{
			"base_url":       s.config.Server.BaseURL,
			"default_locale": s.config.I18n.DefaultLocale,
			"default_syntax": s.config.Macro.DefaultSyntax,
			"database_path":  s.config.Storage.DatabasePath,
		},
	})
}

// request binds the macro invocation carried by r.
func (s *Server) request(r *http.Request) (macro.Parameters, macro.TransformationContext, error) {
	q := r.URL.Query()
	raw := map[string]string{}
	for name, values := range q {
		if name == languageParam || name == syntaxParam || len(values) == 0 {
			continue
		}
		raw[name] = values[0]
	}
	params, err := macro.ParseParameters(raw)
	if err != nil {
		return macro.Parameters{}, macro.TransformationContext{}, err
	}

	tctx := macro.TransformationContext{
		Syntax: q.Get(syntaxParam),
		Locale: s.locale(r),
	}
	if tctx.Syntax == "" {
		tctx.Syntax = s.config.Macro.DefaultSyntax
	}
	return params, tctx, nil
}

// locale picks ?language=, then the first Accept-Language tag, then the default.
func (s *Server) locale(r *http.Request) string {
	if l := strings.TrimSpace(r.URL.Query().Get(languageParam)); l != "" {
		return l
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		tag := strings.TrimSpace(strings.SplitN(strings.SplitN(header, ",", 2)[0], ";", 2)[0])
		if tag != "" && tag != "*" {
			return tag
		}
	}
	return s.config.I18n.DefaultLocale
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(rights.WithUser(r.Context(), r.Header.Get(UserHeader)))
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) ([]*rendering.Block, *skinx.Registry, macro.TransformationContext, bool) {
	params, tctx, err := s.request(r)
	if err != nil {
		s.respondMacroError(w, err)
		return nil, nil, tctx, false
	}
	registry := skinx.NewRegistry()
	ctx := skinx.WithRegistry(rights.WithUser(r.Context(), r.Header.Get(UserHeader)), registry)

	s.logger.Debug("accordion request",
		zap.Stringer("parameters", params),
		zap.String("user", rights.UserFrom(ctx)),
		zap.String("locale", tctx.Locale))
	blocks, err := s.macro.Execute(ctx, params, "", tctx)
	if err != nil {
		s.respondMacroError(w, err)
		return nil, nil, tctx, false
	}
	return blocks, registry, tctx, true
}

func (s *Server) handleAccordionPage(w http.ResponseWriter, r *http.Request) {
	blocks, registry, tctx, ok := s.execute(w, r)
	if !ok {
		return
	}
	page := rendering.Page{
		Title: s.macro.Descriptor(tctx.Locale).Name,
		Lang:  strings.ReplaceAll(tctx.Locale, "_", "-"),
		Body:  blocks,
	}
	for _, name := range registry.Stylesheets() {
		page.Stylesheets = append(page.Stylesheets, "/skin/"+name)
	}
	for _, name := range registry.Scripts() {
		page.Scripts = append(page.Scripts, "/skin/"+name)
	}

	var buf bytes.Buffer
	if err := rendering.RenderPage(&buf, page); err != nil {
		s.logger.Error("page rendering failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAccordionJSON(w http.ResponseWriter, r *http.Request) {
	blocks, registry, _, ok := s.execute(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"blocks":      blocks,
		"scripts":     registry.Scripts(),
		"stylesheets": registry.Stylesheets(),
	})
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.macro.Descriptor(s.locale(r)))
}

// documentName returns the full name carried by the {fullName} route parameter.
func documentName(r *http.Request) string {
	name := chi.URLParam(r, "fullName")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	return name
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	r = withUser(r)
	name := documentName(r)
	ref := reference.ResolveDocument(name)

	allowed, err := s.rights.HasAccess(r.Context(), rights.View, ref)
	if err != nil {
		s.logger.Error("rights check failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !allowed {
		s.respondError(w, http.StatusForbidden, "view right required")
		return
	}

	doc, err := s.storage.GetDocument(r.Context(), ref)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.logger.Error("get document failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := rendering.RenderBody(&buf, doc.Content, doc.Syntax); err != nil {
		s.logger.Error("document rendering failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// documentSummary is a listed document; content and objects are left out.
type documentSummary struct {
	FullName  string    `json:"full_name"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// handleListDocuments lists the documents the principal may view, most recently
// modified first. Offset and limit apply to the stored documents, before filtering.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	r = withUser(r)
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 1 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	docs, err := s.storage.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := make([]documentSummary, 0, len(docs))
	for _, doc := range docs {
		allowed, err := s.rights.HasAccess(r.Context(), rights.View, doc.Reference)
		if err != nil {
			s.logger.Error("rights check failed", zap.String("document", doc.FullName()), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !allowed {
			continue
		}
		summaries = append(summaries, documentSummary{
			FullName:  doc.FullName(),
			Title:     doc.Title,
			Author:    doc.Author,
			UpdatedAt: doc.Date(),
			URL:       doc.URL("get", s.config.Server.BaseURL),
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": summaries,
		"offset":    offset,
		"limit":     limit,
		"next":      offset + len(docs),
		"more":      len(docs) == limit,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	r = withUser(r)
	name := documentName(r)
	ref := reference.ResolveDocument(name)

	allowed, err := s.rights.HasAccess(r.Context(), rights.Delete, ref)
	if err != nil {
		s.logger.Error("rights check failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !allowed {
		s.respondError(w, http.StatusForbidden, "delete right required")
		return
	}
	exists, err := s.storage.Exists(r.Context(), ref)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	if err := s.storage.DeleteDocument(r.Context(), ref); err != nil {
		s.logger.Error("delete document failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("document deleted", zap.String("document", name), zap.String("user", rights.UserFrom(r.Context())))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "document": name})
}

func intParam(s string, def int) (int, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func (s *Server) handleSkin(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := skinx.Open(chi.URLParam(r, "resource"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "resource not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) respondMacroError(w http.ResponseWriter, err error) {
	switch {
	case macro.IsKind(err, macro.KindWrongParameters):
		s.respondError(w, http.StatusBadRequest, messageOf(err))
	default:
		s.logger.Error("macro execution failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, messageOf(err))
	}
}

// messageOf returns the reader-facing message of a macro error.
func messageOf(err error) string {
	var me *macro.Error
	if errors.As(err, &me) {
		if me.Err != nil {
			return me.Message + ": " + me.Err.Error()
		}
		return me.Message
	}
	return err.Error()
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
