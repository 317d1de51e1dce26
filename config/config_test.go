package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d != Default {
		t.Fatalf("Load(missing) = %+v, want Default %+v", d, Default)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dauphin.yaml")
	content := "opt_level: 3\nverbose: 2\nprofile: true\nprofile_dir: /tmp/profiles\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Driver{OptLevel: 3, Verbose: 2, Profile: true, ProfileDir: "/tmp/profiles"}
	if d != want {
		t.Fatalf("Load = %+v, want %+v", d, want)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dauphin.yaml")
	if err := os.WriteFile(path, []byte("opt_level: [this is not an int"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error parsing malformed YAML")
	}
}
