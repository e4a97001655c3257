// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docaccordion/internal/models"
	"github.com/hyperjump/docaccordion/internal/reference"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// dataSourceName makes LIKE case-sensitive on every pooled connection, since
// wiki names are.
func dataSourceName(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_cslike=1"
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		full_name TEXT PRIMARY KEY,
		space TEXT NOT NULL,
		name TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		syntax TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		creator TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at);
	CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title);

	CREATE TABLE IF NOT EXISTS objects (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		class_name TEXT NOT NULL,
		number INTEGER NOT NULL,
		properties TEXT,
		FOREIGN KEY (document) REFERENCES documents(full_name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_objects_class ON objects(class_name, document);
	CREATE INDEX IF NOT EXISTS idx_objects_document ON objects(document, number);

	CREATE TABLE IF NOT EXISTS users (
		reference TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := db.Exec(schema)
	return err
}

// DB exposes the underlying handle to the query and rights services that share the database.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Exists reports whether the document is stored.
func (s *SQLiteStorage) Exists(ctx context.Context, ref reference.DocumentReference) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE full_name = ?`, ref.LocalString(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetDocument returns a document with its objects.
func (s *SQLiteStorage) GetDocument(ctx context.Context, ref reference.DocumentReference) (*models.Document, error) {
	fullName := ref.LocalString()
	doc := models.Document{Reference: ref}
	err := s.db.QueryRowContext(ctx,
		`SELECT title, content, syntax, author, creator, created_at, updated_at
		 FROM documents WHERE full_name = ?`, fullName,
	).Scan(&doc.Title, &doc.Content, &doc.Syntax, &doc.Author, &doc.Creator, &doc.CreatedAt, &doc.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", fullName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	objects, err := s.getObjects(ctx, fullName)
	if err != nil {
		return nil, err
	}
	doc.Objects = objects
	return &doc, nil
}

func (s *SQLiteStorage) getObjects(ctx context.Context, fullName string) ([]*models.XObject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_name, number, properties
		 FROM objects WHERE document = ? ORDER BY class_name, number`,
		fullName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []*models.XObject
	for rows.Next() {
		var obj models.XObject
		var propsJSON sql.NullString
		if err := rows.Scan(&obj.ID, &obj.ClassName, &obj.Number, &propsJSON); err != nil {
			return nil, err
		}
		if propsJSON.Valid && propsJSON.String != "" {
			if err := json.Unmarshal([]byte(propsJSON.String), &obj.Properties); err != nil {
				return nil, fmt.Errorf("failed to unmarshal object properties: %w", err)
			}
		}
		objects = append(objects, &obj)
	}
	return objects, rows.Err()
}

// SaveDocument inserts or replaces a document and all of its objects.
// Objects without an ID get a new UUID; zero dates are set to now.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	fullName := doc.FullName()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (full_name, space, name, title, content, syntax, author, creator, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(full_name) DO UPDATE SET
		   title = excluded.title, content = excluded.content, syntax = excluded.syntax,
		   author = excluded.author, creator = excluded.creator,
		   created_at = excluded.created_at, updated_at = excluded.updated_at`,
		fullName, doc.Reference.Space().LocalString(), doc.Reference.Name,
		doc.Title, doc.Content, doc.Syntax, doc.Author, doc.Creator,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", fullName, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE document = ?`, fullName); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO objects (id, document, class_name, number, properties)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, obj := range doc.Objects {
		if obj.ID == "" {
			obj.ID = uuid.New().String()
		}
		propsJSON, err := json.Marshal(obj.Properties)
		if err != nil {
			return fmt.Errorf("failed to marshal object properties: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, obj.ID, fullName, obj.ClassName, obj.Number, string(propsJSON)); err != nil {
			return fmt.Errorf("failed to save object %s on %s: %w", obj.ClassName, fullName, err)
		}
	}
	return tx.Commit()
}

// DeleteDocument removes a document and its objects.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, ref reference.DocumentReference) error {
	fullName := ref.LocalString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE document = ?`, fullName); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE full_name = ?`, fullName); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDocuments returns documents, most recently modified first, with offset and limit.
// Objects are not loaded.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT full_name, title, content, syntax, author, creator, created_at, updated_at
		 FROM documents ORDER BY updated_at DESC, full_name LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var fullName string
		if err := rows.Scan(&fullName, &doc.Title, &doc.Content, &doc.Syntax, &doc.Author, &doc.Creator, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		doc.Reference = reference.ResolveDocument(fullName)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// GetUser returns a user profile by its serialized reference.
func (s *SQLiteStorage) GetUser(ctx context.Context, ref string) (*models.User, error) {
	user := models.User{Reference: ref}
	err := s.db.QueryRowContext(ctx,
		`SELECT first_name, last_name FROM users WHERE reference = ?`, ref,
	).Scan(&user.FirstName, &user.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUser inserts or replaces a user profile.
func (s *SQLiteStorage) SaveUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (reference, first_name, last_name) VALUES (?, ?, ?)
		 ON CONFLICT(reference) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name`,
		user.Reference, user.FirstName, user.LastName,
	)
	return err
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
