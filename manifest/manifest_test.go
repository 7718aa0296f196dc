package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/weaver/cut"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a weaver.toml
	dir := t.TempDir()
	tomlContent := `
[project]
name = "traces"
module = "Traces"

[editor]
entry-promotion = "new-first"
redirect-switch = false

[log]
verbosity = 2
file = "weaver.log"

[output]
image = "out/main.cbor"
store = "/var/lib/weaver/methods.db"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "traces" {
		t.Errorf("project name = %q, want traces", m.Project.Name)
	}
	if m.Project.Module != "Traces" {
		t.Errorf("project module = %q, want Traces", m.Project.Module)
	}
	opts := m.EditorOptions()
	if opts.EntryPromotion != cut.PromoteNewFirst {
		t.Errorf("entry promotion = %s, want new-first", opts.EntryPromotion)
	}
	if opts.RedirectSwitch {
		t.Error("redirect-switch = true, want false")
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got := m.LogFile(); got == nil || *got != filepath.Join(m.Dir, "weaver.log") {
		t.Errorf("log file = %v", got)
	}
	if got := m.ImagePath(); got != filepath.Join(m.Dir, "out", "main.cbor") {
		t.Errorf("image path = %q", got)
	}
	if got := m.StorePath(); got != "/var/lib/weaver/methods.db" {
		t.Errorf("store path = %q, want absolute path unchanged", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.EditorOptions() != cut.DefaultOptions() {
		t.Errorf("editor options = %+v, want defaults", m.EditorOptions())
	}
	if m.Project.Module != "App" {
		t.Errorf("default module = %q, want App", m.Project.Module)
	}
	if m.LogFile() != nil {
		t.Error("log file set without a [log] file key")
	}
	if m.ImagePath() != "" || m.StorePath() != "" {
		t.Error("output paths set by default")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[editor]\nredirect-switches = true\n", "editor.redirect-switches"},
		{"bad promotion", "[editor]\nentry-promotion = \"sideways\"\n", "sideways"},
		{"syntax", "[editor\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no weaver.toml exists")
	}
}
