package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project groups the resources and packages of one scanned codebase.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// CreateProject inserts a new project and returns it.
func (s *Store) CreateProject(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		return nil, errors.New("project name is required")
	}
	project := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		project.ID, project.Name, project.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// GetProject fetches a project by identifier.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// FindProjectByName returns the most recently created project with the given
// name, or ErrNotFound.
func (s *Store) FindProjectByName(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE name = ? ORDER BY created_at DESC LIMIT 1`, name)
	return scanProject(row)
}

// LatestProject returns the most recently created project, or ErrNotFound
// when the store is empty.
func (s *Store) LatestProject(ctx context.Context) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects ORDER BY created_at DESC LIMIT 1`)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*Project, error) {
	var project Project
	var createdAt string
	err := row.Scan(&project.ID, &project.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		project.CreatedAt = ts
	}
	return &project, nil
}
