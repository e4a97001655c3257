// Package skinx collects the skin extensions (scripts and stylesheets) a page needs.
package skinx

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed assets
var assets embed.FS

// ErrUnknownResource is returned by Open for resources that are not shipped.
var ErrUnknownResource = errors.New("unknown skin resource")

// Registry records the resources used while rendering one page, in first-use order.
type Registry struct {
	mu   sync.Mutex
	used []string
	seen map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: map[string]bool{}}
}

// Use records resource. Repeated uses are ignored.
func (r *Registry) Use(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[resource] {
		return
	}
	r.seen[resource] = true
	r.used = append(r.used, resource)
}

// Scripts returns the used .js resources.
func (r *Registry) Scripts() []string {
	return r.byExt(".js")
}

// Stylesheets returns the used .css resources.
func (r *Registry) Stylesheets() []string {
	return r.byExt(".css")
}

func (r *Registry) byExt(ext string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.used {
		if strings.EqualFold(path.Ext(u), ext) {
			out = append(out, u)
		}
	}
	return out
}

type registryKey struct{}

// WithRegistry attaches a page registry to ctx.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the page registry, or nil.
func FromContext(ctx context.Context) *Registry {
	r, _ := ctx.Value(registryKey{}).(*Registry)
	return r
}

// Extensions records uses into the registry carried by the request context.
type Extensions struct{}

// Use records resource for the current page. Without a page registry it does nothing.
func (Extensions) Use(ctx context.Context, resource string) {
	if r := FromContext(ctx); r != nil {
		r.Use(resource)
	}
}

// Open returns the content and MIME type of a shipped resource.
func Open(resource string) ([]byte, string, error) {
	name := path.Base(path.Clean("/" + resource))
	data, err := fs.ReadFile(assets, "assets/"+name)
	if err != nil {
		return nil, "", ErrUnknownResource
	}
	switch path.Ext(name) {
	case ".js":
		return data, "application/javascript; charset=utf-8", nil
	case ".css":
		return data, "text/css; charset=utf-8", nil
	default:
		return data, "application/octet-stream", nil
	}
}
