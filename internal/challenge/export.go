package challenge

import (
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
)

// ExportEntry is one file found under a public directory.
type ExportEntry struct {
	// Path is the file location on disk.
	Path string
	// Rel is Path relative to the challenge directory, slash separated.
	Rel   string
	Entry fs.DirEntry
}

// Exportable yields the regular files under every public directory, in
// template order and lexical order within a directory. The filesystem is
// walked again on every range; nothing is cached. Missing public directories
// are skipped, other walk errors are yielded alongside the offending path.
func (c *Challenge) Exportable() iter.Seq2[ExportEntry, error] {
	return func(yield func(ExportEntry, error) bool) {
		for _, d := range c.tmpl.Directories.Public {
			stopped := false
			_ = filepath.WalkDir(filepath.Join(c.dir, d), func(path string, de fs.DirEntry, err error) error {
				if err != nil {
					if de == nil && errors.Is(err, fs.ErrNotExist) {
						return fs.SkipDir
					}
					if !yield(ExportEntry{Path: path, Rel: c.rel(path)}, err) {
						stopped = true
						return fs.SkipAll
					}
					return nil
				}
				if !de.Type().IsRegular() {
					return nil
				}
				if !yield(ExportEntry{Path: path, Rel: c.rel(path), Entry: de}, nil) {
					stopped = true
					return fs.SkipAll
				}
				return nil
			})
			if stopped {
				return
			}
		}
	}
}

func (c *Challenge) rel(path string) string {
	r, err := filepath.Rel(c.dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
