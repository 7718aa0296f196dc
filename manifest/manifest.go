// Package manifest handles weaver.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/weaver/cut"
)

// FileName is the name of the configuration file.
const FileName = "weaver.toml"

// Manifest represents a weaver.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	Editor  EditorConfig `toml:"editor"`
	Log     LogConfig    `toml:"log"`
	Output  OutputConfig `toml:"output"`

	// Dir is the directory containing the weaver.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
	// Module names the module new methods are created in when a script
	// does not name one.
	Module string `toml:"module"`
}

// EditorConfig mirrors cut.Options. RedirectSwitch is a pointer so that an
// absent key keeps the default.
type EditorConfig struct {
	EntryPromotion cut.EntryPromotion `toml:"entry-promotion"`
	RedirectSwitch *bool              `toml:"redirect-switch"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// OutputConfig configures where woven methods go.
type OutputConfig struct {
	Image string `toml:"image"`
	Store string `toml:"store"`
}

// Default returns the configuration used when no weaver.toml exists.
func Default() *Manifest {
	return &Manifest{Project: Project{Module: "App"}}
}

// Load parses a weaver.toml file from the given directory. Unknown keys are
// an error so that typos do not silently fall back to defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes weaver.toml content and applies defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for n, k := range undecoded {
			keys[n] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if m.Project.Module == "" {
		m.Project.Module = "App"
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a weaver.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EditorOptions returns the cut options the manifest selects.
func (m *Manifest) EditorOptions() cut.Options {
	opts := cut.DefaultOptions()
	opts.EntryPromotion = m.Editor.EntryPromotion
	if m.Editor.RedirectSwitch != nil {
		opts.RedirectSwitch = *m.Editor.RedirectSwitch
	}
	return opts
}

// LogFile returns the log path for commonlog.Configure, or nil for stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

// ImagePath returns the absolute image output path, or "" if unset.
func (m *Manifest) ImagePath() string {
	return m.resolve(m.Output.Image)
}

// StorePath returns the absolute method store path, or "" if unset.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Output.Store)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
