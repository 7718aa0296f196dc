package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/weaver/il/hash"
	"github.com/chazu/weaver/il/wire"
	"github.com/chazu/weaver/store"
)

const trace = `
[method]
type = "App.Program"
name = "Main"

[[body]]
op = "ldstr"
str = "hello"

[[body]]
op = "call"
method = { type = "[mscorlib]System.Console", name = "WriteLine", params = ["[mscorlib]System.String"] }

[[body]]
op = "ret"

[[step]]
at = "entry"
action = "write"
op = "nop"

[[step]]
find = "call"
action = "replace"
op = "pop"
`

func writeScript(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "trace.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_PrintsDisassembly(t *testing.T) {
	path := writeScript(t, t.TempDir(), trace)
	var out bytes.Buffer
	if err := run(path, options{}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := strings.Join([]string{
		".method void App.Program::Main()",
		"IL_0000: nop",
		`IL_0001: ldstr "hello"`,
		"IL_0006: pop",
		"IL_0007: ret",
	}, "\n")
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRun_ImageAndStore(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, trace)
	image := filepath.Join(dir, "out", "trace.cbor")
	db := filepath.Join(dir, "methods.db")

	var out bytes.Buffer
	opts := options{image: image, store: db, history: true, quiet: true}
	if err := run(path, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(image)
	if err != nil {
		t.Fatal(err)
	}
	m, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	s, err := store.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ok, err := s.Has(hash.Method(m))
	if err != nil || !ok {
		t.Errorf("store does not hold the written image (ok=%v, err=%v)", ok, err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 2 {
		t.Errorf("expected a stored line and one history line, got:\n%s", out.String())
	}
}

func TestRun_ManifestOptions(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[project]
name = "traces"
module = "Traces"

[output]
image = "trace.cbor"
`
	if err := os.WriteFile(filepath.Join(dir, "weaver.toml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, sub, trace)

	var out bytes.Buffer
	if err := run(path, options{quiet: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "trace.cbor"))
	if err != nil {
		t.Fatalf("image not written next to weaver.toml: %v", err)
	}
	m, err := wire.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Module().Name; got != "Traces" {
		t.Errorf("module = %q, want the manifest's Traces", got)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
		opts options
		want string
	}{
		{"bad step", trace + "\n[[step]]\nat = \"nowhere\"\n", options{}, "step 3"},
		{"history without store", trace, options{history: true}, "-history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, dir, tt.body)
			err := run(path, tt.opts, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
