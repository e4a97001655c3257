package macro

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/reference"
)

const keyPrefix = "rendering.macro.docaccordion."

// Intent is what a macro invocation asks for once its parameters are resolved.
type Intent struct {
	// Class is the XClass the selected documents carry an object of.
	Class reference.DocumentReference
	// Location restricts the selection to a subtree; nil selects from the whole wiki.
	Location *reference.SpaceReference
	// Params is the normalized copy of the invocation parameters.
	Params Parameters
	// Discovered is set when Class was read from the application at Location.
	Discovered bool
}

func aliasKey(xclass string) string {
	return keyPrefix + "application." + strings.ToLower(xclass)
}

// Normalize resolves the class and location of an invocation. The caller's
// parameters are left untouched.
func (m *Macro) Normalize(ctx context.Context, params Parameters, locale string) (*Intent, error) {
	p := params.normalized()

	if xclass := strings.TrimSpace(p.XClass); xclass != "" {
		if t := m.localizer.Translation(aliasKey(xclass), locale); t != nil {
			m.logger.Debug("application alias resolved",
				zap.String("alias", xclass),
				zap.String("class", t.RawSource()))
			xclass = strings.TrimSpace(t.RawSource())
		}
		p.XClass = xclass
	}

	var class *reference.DocumentReference
	if p.XClass != "" {
		ref := reference.ResolveDocument(p.XClass)
		class = &ref
	}

	var location *reference.SpaceReference
	if space := strings.TrimSpace(p.Space); space != "" {
		ref := reference.ResolveSpace(space)
		location = &ref
	}

	exists := false
	if class != nil {
		ok, err := m.store.Exists(ctx, *class)
		if err != nil {
			return nil, executionFailure("failed to check class "+class.LocalString(), err)
		}
		exists = ok
	}

	intent := &Intent{Location: location, Params: p}
	if exists {
		intent.Class = *class
		return intent, nil
	}

	if location != nil {
		discovered, err := m.discoverClass(ctx, *location)
		if err != nil {
			return nil, executionFailure("failed to read the application at "+location.LocalString(), err)
		}
		if discovered != nil {
			intent.Class = *discovered
			intent.Location = nil
			intent.Params.XClass = discovered.LocalString()
			intent.Params.Space = ""
			intent.Discovered = true
			return intent, nil
		}
	}

	return nil, wrongParameters(m.translate(keyPrefix+"wrong_parameters", locale, "no usable application class"))
}

// translate returns the raw translation of key, or fallback when none exists.
func (m *Macro) translate(key, locale, fallback string) string {
	if t := m.localizer.Translation(key, locale); t != nil {
		return t.RawSource()
	}
	return fallback
}
