package macro

import (
	"context"
	"strings"

	"github.com/hyperjump/docaccordion/internal/reference"
)

const (
	// LiveTableClass marks the landing page of an application and names its data class.
	LiveTableClass = "AppWithinMinutes.LiveTableClass"
	liveTableField = "class"
)

// discoverClass reads the data class of the application installed at loc.
// It returns nil when loc holds no application.
func (m *Macro) discoverClass(ctx context.Context, loc reference.SpaceReference) (*reference.DocumentReference, error) {
	home := loc.Document(reference.DefaultPage)
	ok, err := m.store.Exists(ctx, home)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	doc, err := m.store.GetDocument(ctx, home)
	if err != nil {
		return nil, err
	}
	sentinel := reference.ResolveDocument(LiveTableClass)
	sentinel.Wiki = loc.Wiki
	name := strings.TrimSpace(doc.XObject(sentinel).StringValue(liveTableField))
	if name == "" {
		return nil, nil
	}

	class := reference.ResolveDocument(name)
	class.Wiki = loc.Wiki
	return &class, nil
}
