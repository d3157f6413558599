// Package geninfo discovers and names a store's generation files.
//
// Filename Format: <gen>.machi / <gen>.machd / <gen>.machi.bak
//
// Where:
//   - gen: the decimal-string form of a generation's uint64 identifier.
//   - .machi: the fixed-width index file for that generation.
//   - .machd: the append-only data file for that generation.
//   - .machi.bak: a transient copy of the index file, present only mid-recovery.
//
// Example filenames:
//
//	0.machi
//	0.machd
//	3.machi.bak
package geninfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iamNilotpal/machi/pkg/filesys"
	"go.uber.org/zap"
)

const (
	indexExt  = ".machi"
	dataExt   = ".machd"
	backupExt = ".machi.bak"

	indexGlob  = "*" + indexExt
	dataGlob   = "*" + dataExt
	backupGlob = "*" + backupExt
)

// ScanGenerations discovers every generation present in dir by globbing its
// index files and parsing each basename's numeric prefix. A basename that
// fails to parse (any malformed name) is skipped with a warning rather than
// failing the whole scan. Before globbing, it runs recoverOrphanedBackups so
// a generation whose index file doesn't exist yet because a crash landed
// between the rename-aside and recreate steps of a prior recovery is still
// found by the glob below, instead of being silently dropped.
func ScanGenerations(dir string, log *zap.SugaredLogger) (map[uint64]struct{}, error) {
	if err := recoverOrphanedBackups(dir, log); err != nil {
		return nil, err
	}

	pattern := filepath.Join(dir, indexGlob)
	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation directory %s: %w", dir, err)
	}

	gens := make(map[uint64]struct{}, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		numStr := strings.TrimSuffix(base, indexExt)
		gen, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			if log != nil {
				log.Warnw("skipping malformed generation file during scan", "path", match, "error", err)
			}
			continue
		}
		gens[gen] = struct{}{}
	}

	return gens, nil
}

// recoverOrphanedBackups finds every .machi.bak file with no corresponding
// fresh .machi file — left behind when a crash lands after OpenRecovery's
// os.Rename(indexPath, bakPath) but before its fresh O_CREATE|O_EXCL index
// file is created — and renames each one back into place. This undoes the
// interrupted rename so the generation's index file, and the live entries
// it records, are found by the scan instead of being orphaned permanently.
// A .machi.bak with a fresh .machi already sitting next to it is a
// different, harmless case (recovery itself completed but its own trailing
// os.Remove(bakPath) cleanup didn't run) and is left alone.
func recoverOrphanedBackups(dir string, log *zap.SugaredLogger) error {
	matches, err := filesys.ReadDir(filepath.Join(dir, backupGlob))
	if err != nil {
		return fmt.Errorf("failed to probe for orphaned backup files in %s: %w", dir, err)
	}

	for _, match := range matches {
		base := filepath.Base(match)
		numStr := strings.TrimSuffix(base, backupExt)
		gen, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			if log != nil {
				log.Warnw("skipping malformed backup file during orphan scan", "path", match, "error", err)
			}
			continue
		}

		indexPath := IndexPath(dir, gen)
		exists, err := filesys.Exists(indexPath)
		if err != nil {
			return fmt.Errorf("failed to stat index file for generation %d: %w", gen, err)
		}
		if exists {
			continue
		}

		if log != nil {
			log.Warnw(
				"found orphaned backup index with no fresh index; resuming interrupted recovery",
				"gen", gen, "path", match,
			)
		}
		if err := os.Rename(match, indexPath); err != nil {
			return fmt.Errorf("failed to restore orphaned backup %s: %w", match, err)
		}
	}

	return nil
}

// IndexPath returns the path of a generation's index file.
func IndexPath(dir string, gen uint64) string {
	return filepath.Join(dir, strconv.FormatUint(gen, 10)+indexExt)
}

// DataPath returns the path of a generation's data file.
func DataPath(dir string, gen uint64) string {
	return filepath.Join(dir, strconv.FormatUint(gen, 10)+dataExt)
}

// BakPath returns the path of a generation's transient backup index file,
// used only while its index file is being rebuilt during recovery.
func BakPath(dir string, gen uint64) string {
	return filepath.Join(dir, strconv.FormatUint(gen, 10)+backupExt)
}

// HasAnyGenerationFiles reports whether dir already contains any generation
// index or data file, used by Store.Open's fail-fast check when opened with
// Temp. Both extensions are checked: an orphaned data file with no index
// (e.g. left behind by a crash between Generation.Close's two DeleteFile
// calls, which remove the index before the data file) must still be treated
// as existing state rather than silently adopted.
func HasAnyGenerationFiles(dir string) (bool, error) {
	indexMatches, err := filesys.ReadDir(filepath.Join(dir, indexGlob))
	if err != nil {
		return false, fmt.Errorf("failed to probe generation directory %s: %w", dir, err)
	}
	if len(indexMatches) > 0 {
		return true, nil
	}

	dataMatches, err := filesys.ReadDir(filepath.Join(dir, dataGlob))
	if err != nil {
		return false, fmt.Errorf("failed to probe generation directory %s: %w", dir, err)
	}
	return len(dataMatches) > 0, nil
}
