package store

import (
	"context"
	"fmt"
)

// PackageIDsForResource returns the identifiers of every package attributed
// to a resource, ordered ascending.
func (s *Store) PackageIDsForResource(ctx context.Context, resourceID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package_id FROM attributions WHERE resource_id = ? ORDER BY package_id`,
		resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attributions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan attribution: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributions: %w", err)
	}
	return ids, nil
}

// AttachPackages attributes every listed resource to every listed package in
// one bulk write. Existing pairs are left untouched.
func (s *Store) AttachPackages(ctx context.Context, resourceIDs, packageIDs []int64) error {
	if len(resourceIDs) == 0 || len(packageIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attach tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attributions (resource_id, package_id) VALUES (?, ?)
         ON CONFLICT (resource_id, package_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare attach: %w", err)
	}
	defer stmt.Close()

	for _, resourceID := range resourceIDs {
		for _, packageID := range packageIDs {
			if _, err := stmt.ExecContext(ctx, resourceID, packageID); err != nil {
				return fmt.Errorf("attach resource %d to package %d: %w", resourceID, packageID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attach: %w", err)
	}
	return nil
}

// ClearResourceAttributions detaches every listed resource from all of its
// packages.
func (s *Store) ClearResourceAttributions(ctx context.Context, resourceIDs []int64) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	_, err := s.execWithRetry(ctx,
		`DELETE FROM attributions WHERE resource_id IN (`+placeholders(len(resourceIDs))+`)`,
		int64Args(resourceIDs)...,
	)
	if err != nil {
		return fmt.Errorf("clear resource attributions: %w", err)
	}
	return nil
}

// ClearPackageAttributions detaches a package from every resource it was
// attached to. The package record itself survives until orphan cleanup.
func (s *Store) ClearPackageAttributions(ctx context.Context, packageID int64) error {
	_, err := s.execWithRetry(ctx,
		`DELETE FROM attributions WHERE package_id = ?`, packageID)
	if err != nil {
		return fmt.Errorf("clear package attributions: %w", err)
	}
	return nil
}
