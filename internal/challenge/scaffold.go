package challenge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const placeholder = "# file automatically generated by mkctf.\n"

// scriptBody is what a fresh lifecycle script does until someone replaces it.
const scriptBody = "#!/bin/sh\n" +
	placeholder +
	">&2 echo \"not implemented.\"\n" +
	"exit 4\n"

// Create scaffolds the challenge directory. It reports created=false when the
// directory already existed; the missing subdirectories and template files are
// still created in that case. Each entry is handled independently: entries that
// exist are left untouched, and a failure is logged without stopping the rest.
// The returned error is reserved for the top-level directory itself.
func (c *Challenge) Create() (created bool, err error) {
	info, err := os.Stat(c.dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, fmt.Errorf("create challenge: %s exists and is not a directory", c.dir)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return false, fmt.Errorf("create challenge: %w", err)
		}
		created = true
	default:
		return false, fmt.Errorf("create challenge: %w", err)
	}

	dirs := append(append([]string{}, c.tmpl.Directories.Public...), c.tmpl.Directories.Private...)
	for _, d := range dirs {
		if err := c.createDir(d); err != nil {
			c.log.Warn("failed to create directory", "challenge", c.ID(), "path", d, "error", err)
		}
	}
	for _, f := range c.tmpl.Files.Txt {
		if err := c.createFile(f, placeholder, 0o644); err != nil {
			c.log.Warn("failed to create file", "challenge", c.ID(), "path", f, "error", err)
		}
	}
	for _, f := range c.tmpl.Files.Scripts() {
		if err := c.createFile(f, scriptBody, 0o700); err != nil {
			c.log.Warn("failed to create file", "challenge", c.ID(), "path", f, "error", err)
		}
	}
	return created, nil
}

func (c *Challenge) createDir(name string) error {
	path := filepath.Join(c.dir, name)
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	c.log.Debug("created directory", "challenge", c.ID(), "path", name)
	return nil
}

// createFile writes content to name unless it already exists. Existing files
// are never opened for writing.
func (c *Challenge) createFile(name, content string, perm os.FileMode) error {
	path := filepath.Join(c.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	_, werr := f.WriteString(content)
	if werr == nil {
		werr = f.Chmod(perm)
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		// Drop the partial file so the next Create writes it again.
		_ = os.Remove(path)
		return werr
	}
	c.log.Debug("created file", "challenge", c.ID(), "path", name)
	return nil
}
