package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"purlmatch/internal/codebase"
)

const resourceColumns = `id, project_id, path, side, is_file, is_archive, sha1, size, status`

type resourceScanner interface {
	Scan(dest ...any) error
}

func scanResource(row resourceScanner) (codebase.Resource, error) {
	var r codebase.Resource
	var isFile, isArchive int
	err := row.Scan(&r.ID, &r.ProjectID, &r.Path, &r.Side, &isFile, &isArchive, &r.SHA1, &r.Size, &r.Status)
	if err != nil {
		return codebase.Resource{}, err
	}
	r.IsFile = isFile != 0
	r.IsArchive = isArchive != 0
	return r, nil
}

// InsertResource records one scanned file or directory.
func (s *Store) InsertResource(ctx context.Context, r *codebase.Resource) error {
	if r.Path == "" {
		return errors.New("resource path is required")
	}
	if r.Side == "" {
		r.Side = codebase.SideTo
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO resources (project_id, path, side, is_file, is_archive, sha1, size, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProjectID, r.Path, r.Side, boolInt(r.IsFile), boolInt(r.IsArchive), r.SHA1, r.Size, r.Status,
	)
	if err != nil {
		return fmt.Errorf("insert resource %s: %w", r.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// GetResourceByPath fetches one to/-side resource by its path.
func (s *Store) GetResourceByPath(ctx context.Context, projectID, path string) (*codebase.Resource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE project_id = ? AND side = ? AND path = ?`,
		projectID, codebase.SideTo, path)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &r, nil
}

const matchCandidateWhere = `project_id = ? AND side = ? AND is_file = 1 AND status = '' AND sha1 != '' AND is_archive = ?`

// CountMatchCandidates returns how many to/-side files with a fingerprint and
// no status match the archive flag.
func (s *Store) CountMatchCandidates(ctx context.Context, projectID string, isArchive bool) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM resources WHERE `+matchCandidateWhere,
		projectID, codebase.SideTo, boolInt(isArchive),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count match candidates: %w", err)
	}
	return count, nil
}

// MatchCandidates streams match-eligible files in chunks of at most chunkSize,
// ordered by path for deterministic partitioning. Iteration stops at the first
// callback error.
func (s *Store) MatchCandidates(ctx context.Context, projectID string, isArchive bool, chunkSize int, fn func([]codebase.Resource) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE `+matchCandidateWhere+` ORDER BY path`,
		projectID, codebase.SideTo, boolInt(isArchive),
	)
	if err != nil {
		return fmt.Errorf("query match candidates: %w", err)
	}
	defer rows.Close()
	return streamChunks(rows, chunkSize, fn)
}

// CountExtractDirectories returns how many to/-side directories carry the
// extraction suffix.
func (s *Store) CountExtractDirectories(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM resources
         WHERE project_id = ? AND side = ? AND is_file = 0 AND path LIKE '%' || ?`,
		projectID, codebase.SideTo, codebase.ExtractSuffix,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count extract directories: %w", err)
	}
	return count, nil
}

// ExtractDirectories streams to/-side extraction directories in chunks of at
// most chunkSize, ordered by path.
func (s *Store) ExtractDirectories(ctx context.Context, projectID string, chunkSize int, fn func([]codebase.Resource) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources
         WHERE project_id = ? AND side = ? AND is_file = 0 AND path LIKE '%' || ?
         ORDER BY path`,
		projectID, codebase.SideTo, codebase.ExtractSuffix,
	)
	if err != nil {
		return fmt.Errorf("query extract directories: %w", err)
	}
	defer rows.Close()
	return streamChunks(rows, chunkSize, fn)
}

// HasNestedExtractDirectory reports whether any extraction directory is a
// strict descendant of dir.
func (s *Store) HasNestedExtractDirectory(ctx context.Context, projectID, dir string) (bool, error) {
	lo, hi := descendantRange(dir)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM resources
         WHERE project_id = ? AND side = ? AND is_file = 0
           AND path >= ? AND path < ? AND path LIKE '%' || ?`,
		projectID, codebase.SideTo, lo, hi, codebase.ExtractSuffix,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check nested extract directory: %w", err)
	}
	return count > 0, nil
}

// FilesUnderWithStatus returns every file below dir (at any depth) carrying
// the given status, ordered by path.
func (s *Store) FilesUnderWithStatus(ctx context.Context, projectID, dir string, status codebase.Status) ([]codebase.Resource, error) {
	lo, hi := descendantRange(dir)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources
         WHERE project_id = ? AND side = ? AND is_file = 1 AND status = ?
           AND path >= ? AND path < ?
         ORDER BY path`,
		projectID, codebase.SideTo, status, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("query files under %s: %w", dir, err)
	}
	defer rows.Close()

	var resources []codebase.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}

// SetResourceStatus updates the status of every listed resource in one write.
func (s *Store) SetResourceStatus(ctx context.Context, resourceIDs []int64, status codebase.Status) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE resources SET status = ? WHERE id IN (`+placeholders(len(resourceIDs))+`)`,
		append([]any{status}, int64Args(resourceIDs)...)...,
	)
	if err != nil {
		return fmt.Errorf("set resource status: %w", err)
	}
	return nil
}

func streamChunks(rows *sql.Rows, chunkSize int, fn func([]codebase.Resource) error) error {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	chunk := make([]codebase.Resource, 0, chunkSize)
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return fmt.Errorf("scan resource: %w", err)
		}
		chunk = append(chunk, r)
		if len(chunk) == chunkSize {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate resources: %w", err)
	}
	if len(chunk) > 0 {
		return fn(chunk)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
