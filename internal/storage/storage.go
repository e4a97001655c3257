// Package storage defines the persistence interface for wiki documents and users.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
)

// ErrNotFound is returned when a document or user does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines document and user persistence operations.
type Storage interface {
	// Document operations
	Exists(ctx context.Context, ref reference.DocumentReference) (bool, error)
	GetDocument(ctx context.Context, ref reference.DocumentReference) (*models.Document, error)
	SaveDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, ref reference.DocumentReference) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// User operations
	GetUser(ctx context.Context, ref string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
