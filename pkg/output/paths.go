package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tiff": true, ".tif": true, ".gif": true,
}

// ResolvePath adds the extension of f when path has none.
func ResolvePath(path string, f Format) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + f.Ext()
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// HasImageExt reports whether path has a supported image extension.
func HasImageExt(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// IsImageFile reports whether path is an existing regular file with a
// supported image extension.
func IsImageFile(path string) bool {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	return HasImageExt(path)
}

// HumanSize formats a byte count with one decimal, e.g. "1.5 KB".
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

// FileSize returns the human readable size of path, "0 B" when it is missing.
func FileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "0 B"
	}
	return HumanSize(st.Size())
}

// BackupName returns a sibling path stamped with at, e.g.
// scores_backup_20240102_150405.json.
func BackupName(path string, at time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_backup_%s%s", stem, at.Format("20060102_150405"), ext))
}

// LoadJSON reads the records stored at path. A single object is returned as a
// one element list; a missing or unreadable file yields an empty list.
func LoadJSON(path string) []json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '{':
		if json.Valid(data) {
			return []json.RawMessage{data}
		}
	case len(data) > 0 && data[0] == '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err == nil {
			return list
		}
	}
	return nil
}

// AppendJSON adds rec to the JSON list stored at path, converting a single
// object into a list first.
func AppendJSON(path string, rec Record) error {
	list := LoadJSON(path)
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	list = append(list, raw)
	if err := EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, list); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
