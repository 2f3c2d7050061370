// Package challenge implements the lifecycle of one challenge directory:
// scaffolding, configuration, flag rotation, lifecycle scripts and export
// enumeration.
//
// A Challenge is a view over durable filesystem state. It assumes a single
// writer per directory and does no locking across processes.
package challenge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"mkctf/internal/config"
	"mkctf/internal/lazy"
	"mkctf/internal/logging"
	"mkctf/internal/repo"
	"mkctf/internal/runner"
)

// DefaultTimeout bounds lifecycle scripts when the caller passes no timeout.
const DefaultTimeout = 4 * time.Second

// DefaultFlagSize is the number of random bytes in a generated flag.
const DefaultFlagSize = 32

// ErrInvalidSize is returned for a non-positive flag size.
var ErrInvalidSize = errors.New("flag size must be positive")

// Challenge is one scaffolded unit rooted at its working directory.
type Challenge struct {
	dir    string
	tmpl   repo.Template
	conf   *config.Store
	run    runner.Func
	log    *slog.Logger
	derive lazy.Cache
}

// Option configures a Challenge.
type Option func(*Challenge)

// WithLogger sets the sink for non-fatal scaffolding failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Challenge) { c.log = l }
}

// WithRunner replaces the process runner used by Build, Deploy and Status.
func WithRunner(fn runner.Func) Option {
	return func(c *Challenge) { c.run = fn }
}

// New binds a challenge to dir. The template is read, never modified.
func New(dir string, tmpl repo.Template, opts ...Option) *Challenge {
	c := &Challenge{
		dir:  filepath.Clean(dir),
		tmpl: tmpl,
		run:  runner.Run,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.New("challenge")
	}
	c.conf = config.New(filepath.Join(c.dir, tmpl.Files.Config))
	return c
}

// Dir returns the challenge working directory.
func (c *Challenge) Dir() string { return c.dir }

// Template returns the repository template the challenge was built with.
func (c *Challenge) Template() repo.Template { return c.tmpl }

// Config returns the challenge's configuration store.
func (c *Challenge) Config() *config.Store { return c.conf }

// Slug is the last path segment of the working directory.
func (c *Challenge) Slug() string {
	return lazy.Value(&c.derive, "slug", func() string {
		return filepath.Base(c.dir)
	})
}

// Category is the name of the working directory's parent.
func (c *Challenge) Category() string {
	return lazy.Value(&c.derive, "category", func() string {
		return filepath.Base(filepath.Dir(c.dir))
	})
}

// ID is "category/slug", the form the CLI accepts.
func (c *Challenge) ID() string {
	return c.Category() + "/" + c.Slug()
}

// IsStandalone reads the standalone key. An unset key reads as false.
func (c *Challenge) IsStandalone() (bool, error) {
	return c.boolKey(config.KeyStandalone)
}

// Enabled reads the enabled key. An unset key reads as false.
func (c *Challenge) Enabled() (bool, error) {
	return c.boolKey(config.KeyEnabled)
}

func (c *Challenge) boolKey(key string) (bool, error) {
	v, err := c.conf.Get(key)
	if errors.Is(err, config.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: key %q is %T, want bool", c.conf.Path(), key, v)
	}
	return b, nil
}

// Enable sets the enabled key, rewriting the whole document.
func (c *Challenge) Enable(enabled bool) error {
	return c.conf.Update(func(d *config.Document) {
		d.Enabled = config.Bool(enabled)
	})
}

// Flag returns the current flag.
func (c *Challenge) Flag() (string, error) {
	v, err := c.conf.Get(config.KeyFlag)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: flag is %T, want string", c.conf.Path(), v)
	}
	return s, nil
}

// RenewFlag generates a new flag of size random bytes, persists it and returns it.
func (c *Challenge) RenewFlag(size int) (string, error) {
	flag, err := MakeFlag(c.tmpl, size)
	if err != nil {
		return "", err
	}
	if err := c.conf.Update(func(d *config.Document) {
		d.Flag = config.String(flag)
	}); err != nil {
		return "", err
	}
	return flag, nil
}

// MakeFlag returns prefix + hex(size bytes from crypto/rand) + suffix.
func MakeFlag(tmpl repo.Template, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return tmpl.Flag.Prefix + hex.EncodeToString(buf) + tmpl.Flag.Suffix, nil
}

// Build runs the build script. A non-positive timeout means DefaultTimeout.
func (c *Challenge) Build(ctx context.Context, timeout time.Duration) runner.Outcome {
	return c.runScript(ctx, c.tmpl.Files.Build, timeout)
}

// Deploy runs the deploy script. A non-positive timeout means DefaultTimeout.
func (c *Challenge) Deploy(ctx context.Context, timeout time.Duration) runner.Outcome {
	return c.runScript(ctx, c.tmpl.Files.Deploy, timeout)
}

// Status runs the status script. A non-positive timeout means DefaultTimeout.
func (c *Challenge) Status(ctx context.Context, timeout time.Duration) runner.Outcome {
	return c.runScript(ctx, c.tmpl.Files.Status, timeout)
}

func (c *Challenge) runScript(ctx context.Context, script string, timeout time.Duration) runner.Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return c.run(ctx, []string{scriptPath(script)}, c.dir, timeout)
}

// scriptPath makes a bare name explicit so it runs from the challenge
// directory instead of being looked up in PATH.
func scriptPath(script string) string {
	if strings.ContainsRune(script, '/') || filepath.IsAbs(script) {
		return script
	}
	return "./" + script
}
