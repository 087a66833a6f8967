package task

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wtimoney/krait/internal/config"
	"github.com/wtimoney/krait/internal/logging"
)

// Clean removes build artifacts under baseDir: the configured directories,
// then anything whose base name matches a configured pattern, recursively.
// Missing targets are not an error, so running it twice is equivalent to
// running it once.
func Clean(baseDir string, cfg config.CleanConfig, log *logging.Logger) error {
	for _, dir := range cfg.Dirs {
		target := dir
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		log.Debugw("removing directory", "dir", target)
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("removing %s: %w", target, err)
		}
	}

	if len(cfg.Patterns) == 0 {
		return nil
	}

	// Collect first, delete after the walk finishes.
	var matched []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if path == baseDir {
			return nil
		}
		for _, pattern := range cfg.Patterns {
			ok, err := filepath.Match(pattern, d.Name())
			if err != nil {
				return fmt.Errorf("pattern %q: %w", pattern, err)
			}
			if ok {
				matched = append(matched, path)
				if d.IsDir() {
					return fs.SkipDir
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", baseDir, err)
	}

	for _, path := range matched {
		log.Debugw("removing", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}
