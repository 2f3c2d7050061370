package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoRepository is returned by Find when no template file exists at the root.
var ErrNoRepository = errors.New("not an mkctf repository")

// Find loads <root>/.mkctf.yml.
func Find(root string) (Template, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Template{}, fmt.Errorf("%w: %s not found (run 'mkctf init')", ErrNoRepository, path)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a template file (YAML or JSON) and validates it.
// Format is detected by extension (.yaml/.yml → YAML, .json → JSON) or by content.
func LoadFromPath(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a template from bytes. ext is a format hint; empty means detect from content.
// Fields missing from the file keep their Default values.
func Load(data []byte, ext string) (Template, error) {
	t := Default()
	if err := decode(data, ext, &t); err != nil {
		return Template{}, err
	}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

func decode(data []byte, ext string, t *Template) error {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}
	if ext == ".json" {
		if err := json.Unmarshal(data, t); err != nil {
			return fmt.Errorf("parse template json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("parse template yaml: %w", err)
	}
	return nil
}

// Save writes t as YAML to <root>/.mkctf.yml. It refuses to overwrite an existing file.
func Save(root string, t Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	path := filepath.Join(root, FileName)
	data, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal template: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create template: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write template: %w", err)
	}
	return path, f.Close()
}
