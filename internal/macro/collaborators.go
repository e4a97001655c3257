package macro

import (
	"context"
	"time"

	"github.com/hyperjump/docaccordion/internal/i18n"
	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
	"github.com/hyperjump/docaccordion/internal/rights"
)

// DocumentStore reads wiki documents.
type DocumentStore interface {
	Exists(ctx context.Context, ref reference.DocumentReference) (bool, error)
	GetDocument(ctx context.Context, ref reference.DocumentReference) (*models.Document, error)
}

// Authorizer checks rights of the principal carried by ctx.
type Authorizer interface {
	HasAccess(ctx context.Context, right rights.Right, ref reference.DocumentReference) (bool, error)
}

// Localizer looks up translations; it returns nil for a missing key.
type Localizer interface {
	Translation(key, locale string) *i18n.Translation
}

// UserFormatter renders a user reference for display.
type UserFormatter interface {
	UserName(ctx context.Context, userRef, pattern string, link bool) string
}

// DateFormatter renders a date for display.
type DateFormatter interface {
	FormatDate(t time.Time, pattern, locale string) string
}

// SkinExtensions registers page resources.
type SkinExtensions interface {
	Use(ctx context.Context, resource string)
}
