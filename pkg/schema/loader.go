package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadFS walks fsys and merges every JSON/YAML definition file. When fsys is
// nil or holds no definition files, the returned definition is empty.
func LoadFS(fsys fs.FS) (Definition, error) {
	def := newDefinition()
	if fsys == nil {
		return def, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := NewDocument(SourceFromFS(path), data)
		if err != nil {
			return err
		}
		parsed, err := doc.Parse()
		if err != nil {
			return err
		}
		return def.Merge(parsed, path)
	})
	if err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadFile parses a single definition file.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return LoadBytes(SourceFromFile(path), data)
}

// LoadBytes parses an in-memory definition.
func LoadBytes(src Source, data []byte) (Definition, error) {
	doc, err := NewDocument(src, data)
	if err != nil {
		return Definition{}, err
	}
	parsed, err := doc.Parse()
	if err != nil {
		return Definition{}, err
	}
	def := newDefinition()
	if err := def.Merge(parsed, doc.Location()); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Load reads path as a directory of definitions or a single file.
func Load(path string) (Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Definition{}, fmt.Errorf("schema: %w", err)
	}
	if info.IsDir() {
		return LoadFS(os.DirFS(path))
	}
	return LoadFile(path)
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
