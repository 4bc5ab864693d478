package ops

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// exportFileExt is the extension every threads export file carries.
const exportFileExt = ".jsonl"

// maxHeaderLine bounds how much of an existing file is read to find its
// export header.
const maxHeaderLine = 4096

// resolvePath returns the absolute file an export writes. With no Path it
// picks ~/.threads/exports/<kind>-<timestamp>.jsonl for the kind the query
// names. An existing file is only replaced when it is empty or is itself a
// threads export.
func (in ExportInput) resolvePath(cfg *config.Config, q query.Query, now time.Time) (string, error) {
	path := in.Path
	if path == "" {
		var err error
		if path, err = defaultExportPath(q, now); err != nil {
			return "", err
		}
	}

	abs, err := checkExportFile(path, cfg)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(abs)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return abs, nil
	case err != nil:
		return "", errors.NewInternal(err)
	case info.Mode()&os.ModeSymlink != 0:
		return "", errors.NewInvalidRequest("path must not be a symlink")
	case !info.Mode().IsRegular():
		return "", errors.NewInvalidRequest("path must be a regular file")
	}

	if err := checkReplaceable(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// resolvePath returns the absolute export file an import reads.
func (in ImportInput) resolvePath(cfg *config.Config) (string, error) {
	abs, err := checkExportFile(in.Path, cfg)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(abs)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return "", errors.NewFileNotFound(in.Path)
	case err != nil:
		return "", errors.NewInternal(err)
	case info.Mode()&os.ModeSymlink != 0:
		return "", errors.NewInvalidRequest("path must not be a symlink")
	case !info.Mode().IsRegular():
		return "", errors.NewInvalidRequest("path must be a regular file")
	}
	return abs, nil
}

// checkExportFile applies the rules shared by import and export: no ".."
// components, a .jsonl name, and a parent that is one of the configured
// export directories itself (not a subdirectory of one, and not a symlink).
// allow_unsafe_paths lifts the directory rule only.
//
// Keeping files directly inside a known directory leaves the last component
// as the only one that can change between this check and the open, and
// imports open it with O_NOFOLLOW.
func checkExportFile(path string, cfg *config.Config) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if hasParentRef(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	if filepath.Ext(abs) != exportFileExt {
		return "", errors.NewInvalidRequest("export files must have the " + exportFileExt + " extension")
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		return abs, nil
	}

	dirs, err := exportDirs(cfg)
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(abs)
	if !slices.Contains(dirs, parent) {
		return "", errors.NewInvalidRequest(fmt.Sprintf(
			"%s is not directly inside an export directory; allowed: %s (set allowed_paths to add more)",
			path, strings.Join(dirs, ", ")))
	}
	if info, err := os.Lstat(parent); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return abs, nil
}

// exportDirs returns the configured export directories. A directory that is
// itself a symlink is replaced by its target so files are matched against
// where they really live.
func exportDirs(cfg *config.Config) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}

	dirs := cfg.ExportDirs(home)
	for i, d := range dirs {
		info, err := os.Lstat(d)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		resolved, err := filepath.EvalSymlinks(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve export directory %s: %v", d, err))
		}
		dirs[i] = resolved
	}
	return dirs, nil
}

// checkReplaceable refuses to overwrite a file whose first line is not a
// threads export header. Empty files may be replaced.
func checkReplaceable(path string) error {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, maxHeaderLine)).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return errors.NewInternal(err)
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	var header ExportHeader
	if json.Unmarshal(line, &header) != nil || !header.ThreadsExport {
		return errors.NewConflict(fmt.Sprintf("%s exists and is not a threads export; refusing to overwrite it", path))
	}
	return nil
}

// defaultExportPath returns ~/.threads/exports/<kind>-<timestamp>.jsonl when
// the query names a kind, all-<timestamp>.jsonl otherwise.
func defaultExportPath(q query.Query, now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}

	name := "all"
	if k, ok := kindInQuery(q); ok {
		name = thread.Noun(k, true)
	}
	filename := name + "-" + now.Format("2006-01-02T150405") + exportFileExt
	return filepath.Join(home, config.DirName, config.ExportsDirName, filename), nil
}

// hasParentRef reports whether any component of path is "..", splitting on
// both slash styles.
func hasParentRef(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
