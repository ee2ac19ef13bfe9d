package scanner

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"purlmatch/internal/codebase"
	"purlmatch/internal/logging"
	"purlmatch/internal/store"
)

// Summary reports what one collection pass recorded.
type Summary struct {
	Files       int
	Directories int
	Archives    int
}

// Scan walks root and records every file and directory as a to/-side
// resource of the project. Files are fingerprinted with SHA1; archives are
// flagged by extension. Per-file read failures do not abort the walk: the
// resource is recorded without a fingerprint and the failures are aggregated
// into the returned error.
func Scan(ctx context.Context, st *store.Store, projectID, root string, archiveExts []string, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "scanner")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return Summary{}, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("root %s is not a directory", absRoot)
	}

	logger.Info("collecting codebase", logging.String("root", absRoot))

	var summary Summary
	var walkErrs []error

	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			walkErrs = append(walkErrs, fmt.Errorf("walk %s: %w", path, walkErr))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			walkErrs = append(walkErrs, fmt.Errorf("relativize %s: %w", path, err))
			return nil
		}
		rel = filepath.ToSlash(rel)

		resource := codebase.Resource{
			ProjectID: projectID,
			Path:      rel,
			Side:      codebase.SideTo,
		}

		switch {
		case entry.IsDir():
			summary.Directories++
		case entry.Type().IsRegular():
			resource.IsFile = true
			resource.IsArchive = isArchivePath(rel, archiveExts)
			sha1sum, size, err := fingerprintFile(path)
			if err != nil {
				walkErrs = append(walkErrs, err)
			} else {
				resource.SHA1 = sha1sum
				resource.Size = size
			}
			summary.Files++
			if resource.IsArchive {
				summary.Archives++
			}
		default:
			// Symlinks and other irregular entries are not matchable content.
			return nil
		}

		if err := st.InsertResource(ctx, &resource); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	logger.Info("codebase collected",
		logging.Int("files", summary.Files),
		logging.Int("directories", summary.Directories),
		logging.Int("archives", summary.Archives),
	)
	return summary, errors.Join(walkErrs...)
}

func fingerprintFile(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hash := sha1.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}

func isArchivePath(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
