package challenge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"mkctf/internal/repo"
)

// ErrNotChallenge is returned by Find for a directory without a config document.
var ErrNotChallenge = errors.New("not a challenge")

// discoverLimit caps concurrent config loads during Discover.
const discoverLimit = 8

// Discover returns every challenge under root laid out as <category>/<slug>,
// sorted by category then slug. A directory counts as a challenge when it
// holds the config document; hidden directories are skipped. Each config is
// loaded once so that broken documents surface here.
func Discover(ctx context.Context, root string, tmpl repo.Template, opts ...Option) ([]*Challenge, error) {
	categories, err := readSubdirs(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	var candidates []string
	for _, cat := range categories {
		slugs, err := readSubdirs(filepath.Join(root, cat))
		if err != nil {
			return nil, fmt.Errorf("discover: %w", err)
		}
		for _, slug := range slugs {
			candidates = append(candidates, filepath.Join(root, cat, slug))
		}
	}

	found := make([]*Challenge, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(discoverLimit)
	for i, dir := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ch := New(dir, tmpl, opts...)
			if !ch.Config().Exists() {
				return nil
			}
			if _, err := ch.Config().Load(); err != nil {
				return fmt.Errorf("load %s: %w", ch.ID(), err)
			}
			found[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(found, func(c *Challenge) bool { return c == nil }), nil
}

// Find resolves "category/slug" under root.
func Find(root, id string, tmpl repo.Template, opts ...Option) (*Challenge, error) {
	category, slug, err := SplitID(id)
	if err != nil {
		return nil, err
	}
	ch := New(filepath.Join(root, category, slug), tmpl, opts...)
	if !ch.Config().Exists() {
		return nil, fmt.Errorf("%w: %s (no %s)", ErrNotChallenge, id, tmpl.Files.Config)
	}
	return ch, nil
}

// SplitID parses "category/slug".
func SplitID(id string) (category, slug string, err error) {
	category, slug, ok := strings.Cut(strings.Trim(id, "/"), "/")
	if !ok || !validSegment(category) || !validSegment(slug) {
		return "", "", fmt.Errorf("invalid challenge id %q (want CATEGORY/SLUG)", id)
	}
	return category, slug, nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.HasPrefix(s, ".")
}

// readSubdirs lists non-hidden directories of dir in lexical order.
func readSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
