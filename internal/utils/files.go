package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	return SafeWriteFileMode(path, data, 0o644)
}

// SafeWriteFileMode is SafeWriteFile with explicit permissions.
func SafeWriteFileMode(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// UniquePath returns dir/base+ext, or dir/base__N+ext for the first N >= 2
// that does not exist yet. taken reports names already claimed in memory.
func UniquePath(dir, base, ext string, taken func(string) bool) string {
	free := func(p string) bool {
		if taken != nil && taken(p) {
			return false
		}
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}
	p := filepath.Join(dir, base+ext)
	if free(p) {
		return p
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if free(cand) {
			return cand
		}
	}
}
