// Package export packs the public files of challenges into tar.gz archives.
package export

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"mkctf/internal/challenge"
	"mkctf/internal/logging"
)

// Stats summarizes one archive.
type Stats struct {
	Files int
	// Bytes is the uncompressed size of the archived files.
	Bytes int64
}

// Result is the archive produced for one challenge by ToDir.
type Result struct {
	Challenge *challenge.Challenge
	Path      string
	// Size is the compressed archive size on disk.
	Size  int64
	Stats Stats
}

// Write streams a tar.gz of ch's exportable files to w. Entries are named
// <category>/<slug>/<path relative to the challenge>.
func Write(ctx context.Context, w io.Writer, ch *challenge.Challenge) (Stats, error) {
	var st Stats
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return st, err
	}
	tw := tar.NewWriter(zw)
	prefix := path.Join(ch.Category(), ch.Slug())

	for entry, err := range ch.Exportable() {
		if err != nil {
			return st, fmt.Errorf("export %s: %w", ch.ID(), err)
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}
		n, err := addFile(tw, entry.Path, path.Join(prefix, entry.Rel))
		if err != nil {
			return st, fmt.Errorf("export %s: %s: %w", ch.ID(), entry.Rel, err)
		}
		st.Files++
		st.Bytes += n
	}
	if err := tw.Close(); err != nil {
		return st, fmt.Errorf("close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return st, fmt.Errorf("close gzip: %w", err)
	}
	return st, nil
}

func addFile(tw *tar.Writer, src, name string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	// Archives should not leak organizer account names.
	hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	return io.Copy(tw, f)
}

// ArchiveName is the file name ToDir uses for ch.
func ArchiveName(ch *challenge.Challenge) string {
	return ch.Category() + "-" + ch.Slug() + ".tar.gz"
}

// ToDir writes one archive per challenge into outDir. Disabled challenges are
// skipped unless includeDisabled is set. Each archive is written to a temp
// file and renamed into place.
func ToDir(ctx context.Context, outDir string, chs []*challenge.Challenge, includeDisabled bool) ([]Result, error) {
	log := logging.New("export")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var results []Result
	for _, ch := range chs {
		if !includeDisabled {
			enabled, err := ch.Enabled()
			if err != nil {
				return results, fmt.Errorf("export %s: %w", ch.ID(), err)
			}
			if !enabled {
				log.Debug("skipping disabled challenge", "challenge", ch.ID())
				continue
			}
		}
		res, err := writeArchive(ctx, outDir, ch)
		if err != nil {
			return results, err
		}
		log.Info("archive written", "challenge", ch.ID(), "path", res.Path, "files", res.Stats.Files)
		results = append(results, res)
	}
	return results, nil
}

func writeArchive(ctx context.Context, outDir string, ch *challenge.Challenge) (Result, error) {
	dst := filepath.Join(outDir, ArchiveName(ch))
	tmp, err := os.CreateTemp(outDir, ArchiveName(ch)+".tmp.*")
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", ch.ID(), err)
	}
	defer os.Remove(tmp.Name())

	st, err := Write(ctx, tmp, ch)
	if err != nil {
		tmp.Close()
		return Result{}, err
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("export %s: %w", ch.ID(), err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Result{}, fmt.Errorf("export %s: %w", ch.ID(), err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", ch.ID(), err)
	}
	return Result{Challenge: ch, Path: dst, Size: info.Size(), Stats: st}, nil
}
