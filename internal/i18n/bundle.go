// Package i18n provides translation bundles loaded from YAML files.
//
// A bundle directory holds one "<locale>.yaml" file per locale. Keys are flat
// dotted names; nested YAML maps are flattened with '.'. File entries override
// the built-in defaults.
package i18n

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/docaccordion/internal/watcher"
	"github.com/hyperjump/docaccordion/pkg/utils"
)

// Translation is a resolved message.
type Translation struct {
	key    string
	locale string
	raw    string
}

// Key is the translation key.
func (t *Translation) Key() string { return t.key }

// Locale is the locale the message was found in ("" for the root bundle).
func (t *Translation) Locale() string { return t.locale }

// RawSource is the untransformed message text.
func (t *Translation) RawSource() string { return t.raw }

// Bundle resolves keys against file and built-in messages.
type Bundle struct {
	mu            sync.RWMutex
	dir           string
	defaultLocale string
	files         map[string]map[string]string
	overrides     map[string]map[string]string
	logger        *zap.Logger
}

// NewBundle loads every bundle file in dir. An empty dir uses built-in messages only.
func NewBundle(dir, defaultLocale string, logger *zap.Logger) (*Bundle, error) {
	b := &Bundle{
		dir:           dir,
		defaultLocale: normalizeLocale(defaultLocale),
		files:         map[string]map[string]string{},
		overrides:     map[string]map[string]string{},
		logger:        utils.OrNop(logger),
	}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload rereads every bundle file.
func (b *Bundle) Reload() error {
	files := map[string]map[string]string{}
	if b.dir != "" {
		entries, err := os.ReadDir(b.dir)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read bundle directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !isBundleFile(e.Name()) {
				continue
			}
			locale, messages, err := readBundleFile(filepath.Join(b.dir, e.Name()))
			if err != nil {
				return err
			}
			files[locale] = messages
		}
	}
	b.mu.Lock()
	b.files = files
	b.mu.Unlock()
	b.logger.Debug("translation bundles loaded", zap.String("dir", b.dir), zap.Int("locales", len(files)))
	return nil
}

func (b *Bundle) reloadFile(path string) {
	locale, messages, err := readBundleFile(path)
	if err != nil {
		b.logger.Warn("failed to reload translation bundle", zap.String("path", path), zap.Error(err))
		return
	}
	b.mu.Lock()
	b.files[locale] = messages
	b.mu.Unlock()
	b.logger.Info("translation bundle reloaded", zap.String("locale", locale), zap.Int("keys", len(messages)))
}

func (b *Bundle) dropFile(path string) {
	locale := localeOf(path)
	b.mu.Lock()
	delete(b.files, locale)
	b.mu.Unlock()
	b.logger.Info("translation bundle removed", zap.String("locale", locale))
}

// Watch reloads bundle files when they change, until ctx is cancelled.
func (b *Bundle) Watch(ctx context.Context) error {
	if b.dir == "" {
		return nil
	}
	w := watcher.NewWatcher(b.dir, []string{".yaml", ".yml"}, b.reloadFile, b.dropFile, watcher.WithLogger(b.logger))
	return w.Start(ctx)
}

// Set registers a message programmatically; it wins over files and defaults.
func (b *Bundle) Set(locale, key, value string) {
	locale = normalizeLocale(locale)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.overrides[locale] == nil {
		b.overrides[locale] = map[string]string{}
	}
	b.overrides[locale][key] = value
}

// Translation looks key up for locale, falling back to the language, the
// default locale and the root bundle. It returns nil when no message exists.
func (b *Bundle) Translation(key, locale string) *Translation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range fallbacks(normalizeLocale(locale), b.defaultLocale) {
		for _, source := range []map[string]map[string]string{b.overrides, b.files, builtin} {
			if v, ok := source[l][key]; ok {
				return &Translation{key: key, locale: l, raw: v}
			}
		}
	}
	return nil
}

// Message returns the raw text of key, reporting whether it exists.
func (b *Bundle) Message(key, locale string) (string, bool) {
	if t := b.Translation(key, locale); t != nil {
		return t.RawSource(), true
	}
	return "", false
}

// DefaultLocale is the locale used when a request names none.
func (b *Bundle) DefaultLocale() string {
	return b.defaultLocale
}

func fallbacks(locale, def string) []string {
	var out []string
	add := func(l string) {
		for _, x := range out {
			if x == l {
				return
			}
		}
		out = append(out, l)
	}
	for _, l := range []string{locale, def} {
		if l == "" {
			continue
		}
		add(l)
		if i := strings.IndexByte(l, '_'); i > 0 {
			add(l[:i])
		}
	}
	add("")
	return out
}

func normalizeLocale(l string) string {
	return strings.ReplaceAll(strings.TrimSpace(l), "-", "_")
}

func isBundleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func localeOf(path string) string {
	base := filepath.Base(path)
	locale := normalizeLocale(strings.TrimSuffix(base, filepath.Ext(base)))
	if locale == "root" {
		return ""
	}
	return locale
}

func readBundleFile(path string) (string, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("failed to parse bundle %s: %w", filepath.Base(path), err)
	}
	messages := map[string]string{}
	flatten("", raw, messages)
	return localeOf(path), messages, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
