// Package repo holds the repository-level template shared by every challenge:
// which directories and files to scaffold, the lifecycle script names and the
// flag format.
package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileName is the repository template file at the repository root.
const FileName = ".mkctf.yml"

// ErrInvalidTemplate is returned by Validate and Load for unusable templates.
var ErrInvalidTemplate = errors.New("invalid repository template")

// Directories lists the challenge subdirectories to scaffold.
// Public ones are exported to players, private ones stay with the organizers.
type Directories struct {
	Public  []string `json:"public" yaml:"public"`
	Private []string `json:"private" yaml:"private"`
}

// Files names the plain template files, the lifecycle scripts and the
// per-challenge config document.
type Files struct {
	Txt    []string `json:"txt" yaml:"txt"`
	Build  string   `json:"build" yaml:"build"`
	Deploy string   `json:"deploy" yaml:"deploy"`
	Status string   `json:"status" yaml:"status"`
	Config string   `json:"config" yaml:"config"`
}

// Scripts returns the lifecycle script names in build, deploy, status order.
func (f Files) Scripts() []string {
	return []string{f.Build, f.Deploy, f.Status}
}

// FlagFormat wraps generated flags.
type FlagFormat struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Suffix string `json:"suffix" yaml:"suffix"`
}

// Template is the repository configuration applied to every challenge.
type Template struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Directories Directories `json:"directories" yaml:"directories"`
	Files       Files       `json:"files" yaml:"files"`
	Flag        FlagFormat  `json:"flag" yaml:"flag"`
}

// Default returns the template written by `mkctf init`.
func Default() Template {
	return Template{
		Directories: Directories{
			Public:  []string{"public-files"},
			Private: []string{"server-files", "exploit"},
		},
		Files: Files{
			Txt:    []string{"writeup.md", "description.md"},
			Build:  "build",
			Deploy: "deploy",
			Status: "status",
			Config: ".mkctf.yml",
		},
		Flag: FlagFormat{Prefix: "FLAG{", Suffix: "}"},
	}
}

// Validate checks that every name is set and stays inside the challenge directory.
func (t Template) Validate() error {
	var problems []string
	check := func(field, name string) {
		if name == "" {
			problems = append(problems, field+" is empty")
			return
		}
		if !filepath.IsLocal(name) {
			problems = append(problems, fmt.Sprintf("%s %q must be a relative path inside the challenge", field, name))
		}
	}
	for _, d := range t.Directories.Public {
		check("directories.public", d)
	}
	for _, d := range t.Directories.Private {
		check("directories.private", d)
	}
	for _, f := range t.Files.Txt {
		check("files.txt", f)
	}
	check("files.build", t.Files.Build)
	check("files.deploy", t.Files.Deploy)
	check("files.status", t.Files.Status)
	check("files.config", t.Files.Config)

	for _, p := range t.Directories.Public {
		if filepath.Clean(p) == "." {
			problems = append(problems, "directories.public \".\" would export the whole challenge")
			continue
		}
		for _, q := range t.Directories.Private {
			if within(p, q) || within(q, p) {
				problems = append(problems, fmt.Sprintf("directories.public %q overlaps directories.private %q", p, q))
			}
		}
		for _, f := range []string{t.Files.Config, t.Files.Build, t.Files.Deploy, t.Files.Status} {
			if f != "" && within(f, p) {
				problems = append(problems, fmt.Sprintf("%q must not live in directories.public %q", f, p))
			}
		}
	}
	for _, q := range t.Directories.Private {
		if filepath.Clean(q) == "." {
			problems = append(problems, "directories.private \".\" is the challenge itself")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTemplate, strings.Join(problems, "; "))
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	path, dir = filepath.Clean(path), filepath.Clean(dir)
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
