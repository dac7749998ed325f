package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const sessionExt = ".json"

// Record is a session file found on disk.
type Record struct {
	Name string
	Path string
}

// ErrEmptyName is returned for a session name with no usable characters.
var ErrEmptyName = errors.New("session name is empty")

var nameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeName makes a session name safe to use as a file name.
func SanitizeName(name string) (string, error) {
	clean := strings.TrimSpace(nameReplacer.Replace(name))
	clean = strings.TrimSuffix(clean, sessionExt)
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return "", ErrEmptyName
	}
	return clean, nil
}

// PathFor returns the file path of a named session in dir.
func PathFor(dir, name string) string {
	return filepath.Join(dir, name+sessionExt)
}

// ListDir returns the session files in dir sorted case-insensitively by name.
// A missing directory has no sessions.
func ListDir(dir string) ([]Record, error) {
	if !isDir(dir) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "*"+sessionExt)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, m := range matches {
		path := filepath.Join(dir, m)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		records = append(records, Record{
			Name: strings.TrimSuffix(m, sessionExt),
			Path: path,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if a != b {
			return a < b
		}
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// List returns the sessions in the current location without prompting.
func (l *Locator) List(ctx context.Context) ([]Record, error) {
	dir, ok, err := l.Resolve(ctx, ResolveOptions{})
	if err != nil || !ok {
		return nil, err
	}
	return ListDir(dir)
}

// Find looks up a session by name in the current location.
func (l *Locator) Find(ctx context.Context, name string) (Record, bool, error) {
	records, err := l.List(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if r.Name == name {
			return r, true, nil
		}
	}
	// Names typed by the user match the file they were saved under.
	clean, err := SanitizeName(name)
	if err != nil || clean == name {
		return Record{}, false, nil
	}
	for _, r := range records {
		if r.Name == clean {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Delete removes one session file.
func Delete(r Record) error {
	return os.Remove(r.Path)
}

// DeleteAll removes every session file in the current location and reports
// how many were removed. Other files in the directory are left alone.
func (l *Locator) DeleteAll(ctx context.Context) (int, error) {
	records, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range records {
		if err := Delete(r); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
