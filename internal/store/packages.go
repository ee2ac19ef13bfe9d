package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"purlmatch/internal/codebase"
)

const packageColumns = `id, project_id, type, namespace, name, version, purl`

func scanPackage(row resourceScanner) (codebase.Package, error) {
	var p codebase.Package
	err := row.Scan(&p.ID, &p.ProjectID, &p.Type, &p.Namespace, &p.Name, &p.Version, &p.PURL)
	if err != nil {
		return codebase.Package{}, err
	}
	return p, nil
}

// UpsertPackage inserts a package or returns the existing record with the
// same purl. The purl is the package's identity within a project.
func (s *Store) UpsertPackage(ctx context.Context, p *codebase.Package) error {
	if p.PURL == "" {
		p.PURL = codebase.BuildPURL(p.Type, p.Namespace, p.Name, p.Version)
	}
	if p.Name == "" {
		return errors.New("package name is required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO packages (project_id, type, namespace, name, version, purl)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (project_id, purl) DO NOTHING`,
		p.ProjectID, p.Type, p.Namespace, p.Name, p.Version, p.PURL,
	)
	if err != nil {
		return fmt.Errorf("insert package %s: %w", p.PURL, err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM packages WHERE project_id = ? AND purl = ?`,
		p.ProjectID, p.PURL,
	)
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("resolve package id for %s: %w", p.PURL, err)
	}
	return nil
}

// GetPackage fetches a package by identifier.
func (s *Store) GetPackage(ctx context.Context, id int64) (*codebase.Package, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id = ?`, id)
	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &p, nil
}

// PackageGroups returns the distinct (namespace, name) pairs across the
// project's packages, ordered by namespace then name.
func (s *Store) PackageGroups(ctx context.Context, projectID string) ([]codebase.GroupKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT namespace, name FROM packages WHERE project_id = ? ORDER BY namespace, name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query package groups: %w", err)
	}
	defer rows.Close()

	var groups []codebase.GroupKey
	for rows.Next() {
		var g codebase.GroupKey
		if err := rows.Scan(&g.Namespace, &g.Name); err != nil {
			return nil, fmt.Errorf("scan package group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate package groups: %w", err)
	}
	return groups, nil
}

// PackagesInGroup returns every version of a logical package, ordered by
// insertion (rowid ascending). Main-package election relies on this order for
// its tie-break: on equal resource-set size the earliest-inserted wins.
func (s *Store) PackagesInGroup(ctx context.Context, projectID string, group codebase.GroupKey) ([]codebase.Package, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM packages
         WHERE project_id = ? AND namespace = ? AND name = ?
         ORDER BY id`,
		projectID, group.Namespace, group.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("query packages in group: %w", err)
	}
	defer rows.Close()

	var packages []codebase.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return packages, nil
}

// ResourcePathsForPackage returns the set of paths attributed to a package.
func (s *Store) ResourcePathsForPackage(ctx context.Context, packageID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.path FROM resources r
         JOIN attributions a ON a.resource_id = r.id
         WHERE a.package_id = ?`,
		packageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query resource paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan resource path: %w", err)
		}
		paths[path] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource paths: %w", err)
	}
	return paths, nil
}

// DeleteOrphanPackages removes every package with no attributed resources and
// returns how many were deleted.
func (s *Store) DeleteOrphanPackages(ctx context.Context, projectID string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM packages
         WHERE project_id = ?
           AND NOT EXISTS (SELECT 1 FROM attributions a WHERE a.package_id = packages.id)`,
		projectID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete orphan packages: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// PackageReport summarizes one surviving package for reporting.
type PackageReport struct {
	Package       codebase.Package
	ResourceCount int
}

// PackageReports returns every package with its attributed resource count,
// ordered by purl.
func (s *Store) PackageReports(ctx context.Context, projectID string) ([]PackageReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+packageColumns+`,
                (SELECT COUNT(1) FROM attributions a WHERE a.package_id = packages.id)
         FROM packages WHERE project_id = ? ORDER BY purl`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query package reports: %w", err)
	}
	defer rows.Close()

	var reports []PackageReport
	for rows.Next() {
		var report PackageReport
		p := &report.Package
		err := rows.Scan(&p.ID, &p.ProjectID, &p.Type, &p.Namespace, &p.Name, &p.Version, &p.PURL, &report.ResourceCount)
		if err != nil {
			return nil, fmt.Errorf("scan package report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate package reports: %w", err)
	}
	return reports, nil
}
