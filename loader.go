package godtl

import (
	"os"
	"path/filepath"
	"strings"
)

// Loader fetches raw template source by name. Load returns the source
// and an origin string identifying where it came from, for error
// messages and debugging.
type Loader interface {
	Load(name string) (content string, origin string, err error)
}

// MapLoader serves templates from an in-memory map, keyed by name
type MapLoader map[string]string

// Load implements the Loader interface
func (l MapLoader) Load(name string) (string, string, error) {
	content, ok := l[name]
	if !ok {
		return "", "", os.ErrNotExist
	}
	return content, name, nil
}

// FileSystemLoader serves templates from a list of directories, tried
// in order. Names resolving outside their directory are rejected.
type FileSystemLoader struct {
	dirs []string
}

// NewFileSystemLoader creates a loader over the given template
// directories
func NewFileSystemLoader(dirs ...string) *FileSystemLoader {
	return &FileSystemLoader{dirs: dirs}
}

// Load implements the Loader interface
func (l *FileSystemLoader) Load(name string) (string, string, error) {
	var lastErr error = os.ErrNotExist
	for _, dir := range l.dirs {
		path := filepath.Join(dir, filepath.FromSlash(name))
		absDir, err := filepath.Abs(dir)
		if err != nil {
			lastErr = err
			continue
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			lastErr = err
			continue
		}
		if absPath != absDir && !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
			continue
		}
		content, err := os.ReadFile(absPath)
		if err != nil {
			if !os.IsNotExist(err) {
				lastErr = err
			}
			continue
		}
		return string(content), absPath, nil
	}
	return "", "", lastErr
}
