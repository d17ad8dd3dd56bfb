package service

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// removeFiles deletes the named files in dir. Empty names are skipped,
// errors are logged and ignored.
func removeFiles(ctx context.Context, dir string, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		path := filepath.Join(dir, name)
		err := os.Remove(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.DebugContext(ctx, "can't remove file", "path", path, "error", err)
		}
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// prepareScript strips carriage returns before line ends and makes the
// script executable
func prepareScript(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, stripCR(b), 0o755); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(path, 0o755)
}

func stripCR(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
