package challenge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mkctf/internal/repo"
)

func collect(t *testing.T, ch *Challenge) []string {
	t.Helper()
	var rels []string
	for e, err := range ch.Exportable() {
		if err != nil {
			t.Fatalf("Exportable: %v", err)
		}
		rels = append(rels, e.Rel)
	}
	return rels
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExportable_PublicFilesOnly(t *testing.T) {
	tmpl := repo.Default()
	tmpl.Directories.Public = []string{"public-files", "attachments"}
	ch := New(filepath.Join(t.TempDir(), "misc", "zip"), tmpl)
	if _, err := ch.Create(); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(ch.Dir(), "public-files", "b.txt"), "b")
	write(t, filepath.Join(ch.Dir(), "public-files", "a.txt"), "a")
	write(t, filepath.Join(ch.Dir(), "public-files", "nested", "c.bin"), "c")
	write(t, filepath.Join(ch.Dir(), "attachments", "chall.zip"), "zip")
	write(t, filepath.Join(ch.Dir(), "server-files", "secret.txt"), "nope")

	want := []string{
		"public-files/a.txt",
		"public-files/b.txt",
		"public-files/nested/c.bin",
		"attachments/chall.zip",
	}
	if diff := cmp.Diff(want, collect(t, ch)); diff != "" {
		t.Errorf("exportable (-want +got):\n%s", diff)
	}
}

func TestExportable_ReenumeratesEachCall(t *testing.T) {
	ch := newChallenge(t)
	if _, err := ch.Create(); err != nil {
		t.Fatal(err)
	}
	seq := ch.Exportable()
	if got := len(collect(t, ch)); got != 0 {
		t.Fatalf("fresh challenge exports %d files, want 0", got)
	}

	write(t, filepath.Join(ch.Dir(), "public-files", "handout.tar"), "x")
	var rels []string
	for e, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		rels = append(rels, e.Rel)
	}
	if diff := cmp.Diff([]string{"public-files/handout.tar"}, rels); diff != "" {
		t.Errorf("second range over the same sequence (-want +got):\n%s", diff)
	}
}

func TestExportable_MissingPublicDir(t *testing.T) {
	ch := newChallenge(t)
	if err := os.MkdirAll(ch.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := collect(t, ch); len(got) != 0 {
		t.Errorf("got %v, want nothing", got)
	}
}

func TestExportable_EarlyBreak(t *testing.T) {
	ch := newChallenge(t)
	for _, name := range []string{"1", "2", "3"} {
		write(t, filepath.Join(ch.Dir(), "public-files", name), name)
	}
	n := 0
	for range ch.Exportable() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d entries, want 2", n)
	}
}
