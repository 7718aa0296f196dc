// ilcut - builds a method from an edit script, applies the script's cursor
// steps and writes the result
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/weaver/cut"
	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/il/hash"
	"github.com/chazu/weaver/il/wire"
	"github.com/chazu/weaver/manifest"
	"github.com/chazu/weaver/meta"
	"github.com/chazu/weaver/script"
	"github.com/chazu/weaver/store"
)

// options are the command-line settings. Empty values fall back to the
// manifest.
type options struct {
	config  string
	verbose bool
	image   string
	store   string
	history bool
	quiet   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "Directory containing weaver.toml (default: search upward from the script)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose output")
	flag.StringVar(&opts.image, "o", "", "Write the woven method as a CBOR image to this file")
	flag.StringVar(&opts.store, "store", "", "Record the woven method in this SQLite store")
	flag.BoolVar(&opts.history, "history", false, "List stored versions of the method (requires a store)")
	flag.BoolVar(&opts.quiet, "q", false, "Do not print the disassembly")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ilcut [options] script.toml\n\n")
		fmt.Fprintf(os.Stderr, "Builds the method a script describes, applies its edit steps and prints the result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ilcut trace.toml                        # Print the woven method\n")
		fmt.Fprintf(os.Stderr, "  ilcut -o trace.cbor trace.toml          # Also write an image\n")
		fmt.Fprintf(os.Stderr, "  ilcut -store methods.db -history trace.toml  # Record and list versions\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, opts options, out io.Writer) error {
	m, err := loadManifest(path, opts.config)
	if err != nil {
		return err
	}
	verbosity := m.Log.Verbosity
	if opts.verbose && verbosity < 2 {
		verbosity = 2
	}
	commonlog.Configure(verbosity, m.LogFile())
	log := commonlog.GetLogger("weaver.ilcut")

	f, err := script.Load(path)
	if err != nil {
		return err
	}
	moduleName := f.Module
	if moduleName == "" {
		moduleName = m.Project.Module
	}
	ts := meta.NewTypeSystem(meta.NewModule(moduleName))

	method, labels, err := f.Build(ts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e, err := cut.NewEditor(method, ts, m.EditorOptions())
	if err != nil {
		return err
	}
	if err := f.Apply(e, labels); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("%s: %d references imported", method.FullName(), ts.Imported())

	if !opts.quiet {
		fmt.Fprintf(out, ".method %s\n%s\n", method.FullName(), il.Disassemble(method.Body))
	}

	image := firstNonEmpty(opts.image, m.ImagePath())
	if image != "" {
		data, err := wire.Encode(method)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(image), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(image, data, 0644); err != nil {
			return err
		}
		log.Infof("wrote %s (%d bytes)", image, len(data))
	}

	dbPath := firstNonEmpty(opts.store, m.StorePath())
	if dbPath == "" {
		if opts.history {
			return fmt.Errorf("-history needs a store")
		}
		return nil
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	h, err := s.Put(method)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stored %x\n", h[:8])
	if h != hash.Method(method) {
		return fmt.Errorf("store returned an unexpected hash for %s", method.FullName())
	}

	if opts.history {
		entries, err := s.History(method.FullName())
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Fprintf(out, "%x  %s  %d bytes\n", entry.Hash[:8], entry.StoredAt.Format("2006-01-02 15:04:05"), entry.Size)
		}
	}
	return nil
}

// loadManifest uses dir's weaver.toml when given, otherwise searches upward
// from the script's directory, falling back to defaults.
func loadManifest(scriptPath, dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	m, err := manifest.FindAndLoad(filepath.Dir(scriptPath))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
