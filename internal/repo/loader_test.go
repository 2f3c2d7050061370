package repo

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testdataPath(name string) string {
	_, f, _, _ := runtime.Caller(0)
	dir := filepath.Dir(f)
	return filepath.Join(dir, "testdata", name)
}

func TestLoadFromPath_YAML(t *testing.T) {
	got, err := LoadFromPath(testdataPath("template.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	want := Template{
		Name: "spring-ctf",
		Directories: Directories{
			Public:  []string{"public-files", "attachments"},
			Private: []string{"server-files"},
		},
		Files: Files{
			Txt:    []string{"writeup.md"},
			Build:  "scripts/build",
			Deploy: "deploy",
			Status: "status",
			Config: ".mkctf.yml",
		},
		Flag: FlagFormat{Prefix: "SPRING{", Suffix: "}"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("template (-want +got):\n%s", diff)
	}
}

func TestLoadFromPath_JSONKeepsDefaults(t *testing.T) {
	got, err := LoadFromPath(testdataPath("template.json"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if got.Name != "json-ctf" || got.Flag.Prefix != "CTF[" {
		t.Errorf("got %+v", got)
	}
	if diff := cmp.Diff([]string{"dist"}, got.Directories.Public); diff != "" {
		t.Errorf("public dirs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Default().Files, got.Files); diff != "" {
		t.Errorf("files should keep defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_DetectJSON(t *testing.T) {
	got, err := Load([]byte(`{"flag":{"prefix":"X{","suffix":"}"}}`), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Flag.Prefix != "X{" {
		t.Errorf("prefix = %q", got.Flag.Prefix)
	}
}

func TestLoad_DetectYAML(t *testing.T) {
	got, err := Load([]byte("files:\n  status: healthcheck\n"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Files.Status != "healthcheck" || got.Files.Build != "build" {
		t.Errorf("files = %+v", got.Files)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"escaping dir":              "directories:\n  public: [../outside]\n",
		"absolute file":             "files:\n  txt: [/etc/passwd]\n",
		"empty script":              "files:\n  deploy: \"\"\n",
		"public is challenge root":  "directories:\n  public: [.]\n",
		"public cleans to root":     "directories:\n  public: [public-files/..]\n",
		"public inside private":     "directories:\n  public: [server-files/handout]\n",
		"private inside public":     "directories:\n  public: [files]\n  private: [files/secret]\n",
		"public equals private":     "directories:\n  public: [exploit]\n",
		"config in public dir":      "files:\n  config: public-files/.mkctf.yml\n",
		"script in public dir":      "files:\n  build: public-files/build\n",
		"private is challenge root": "directories:\n  private: [./]\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load([]byte(data), ".yaml"); !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("err = %v, want ErrInvalidTemplate", err)
			}
		})
	}
}

func TestFind_NoRepository(t *testing.T) {
	if _, err := Find(t.TempDir()); !errors.Is(err, ErrNoRepository) {
		t.Errorf("err = %v, want ErrNoRepository", err)
	}
}

func TestSaveThenFind(t *testing.T) {
	root := t.TempDir()
	tmpl := Default()
	tmpl.Name = "roundtrip"
	path, err := Save(root, tmpl)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(root, FileName) {
		t.Errorf("path = %q", path)
	}
	got, err := Find(root)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if diff := cmp.Diff(tmpl, got); diff != "" {
		t.Errorf("template (-want +got):\n%s", diff)
	}

	if _, err := Save(root, tmpl); !errors.Is(err, os.ErrExist) {
		t.Errorf("second Save: err = %v, want ErrExist", err)
	}
}

func TestFiles_Scripts(t *testing.T) {
	want := []string{"build", "deploy", "status"}
	if diff := cmp.Diff(want, Default().Files.Scripts()); diff != "" {
		t.Errorf("Scripts (-want +got):\n%s", diff)
	}
}

func TestValidate_SimilarNamesDoNotOverlap(t *testing.T) {
	tmpl := Default()
	tmpl.Directories.Public = []string{"server", "public-files/nested"}
	tmpl.Directories.Private = []string{"server-files", "public"}
	tmpl.Files.Config = "public-files.yml"
	if err := tmpl.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate: %v", err)
	}
}
