package gen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/spyunit/internal/loader"
	"github.com/unbound-force/spyunit/pkg/registry"
)

// Options controls Generate.
type Options struct {
	// Dir is the directory patterns are resolved in.
	Dir string

	// Output is the file name written into each package.
	Output string

	// MaxTestComplexity is the complexity above which a test method is
	// reported. Zero disables the check.
	MaxTestComplexity int

	// DryRun renders without writing files.
	DryRun bool

	// Logger receives progress and warnings. Nil discards.
	Logger *log.Logger
}

// File is one rendered registry.
type File struct {
	Path    string
	Package string
	Source  []byte
}

// Generate loads the packages matching patterns, validates them as one
// suite and writes a registry file into every package that declares at
// least one class or function. Nothing is written when validation
// fails.
func Generate(opts Options, patterns ...string) ([]File, error) {
	if opts.Output == "" {
		opts.Output = registry.GeneratedFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	results, err := loader.Load(loader.Options{Dir: opts.Dir, Blank: opts.Output}, patterns...)
	if err != nil {
		return nil, err
	}

	pkgs := make([]*Package, 0, len(results))
	for _, res := range results {
		p, err := Scan(res, opts.Output)
		if err != nil {
			return nil, err
		}
		logger.Debug("scanned package", "pkg", p.Path, "classes", len(p.Classes), "funcs", len(p.Funcs))
		pkgs = append(pkgs, p)
	}
	if err := Validate(pkgs); err != nil {
		return nil, fmt.Errorf("invalid test definitions:\n%w", err)
	}
	warnComplexity(logger, pkgs, opts.MaxTestComplexity)

	var files []File
	for _, p := range pkgs {
		if len(p.Classes) == 0 && len(p.Funcs) == 0 {
			logger.Debug("nothing to register", "pkg", p.Path)
			continue
		}
		src, err := Render(p)
		if err != nil {
			return nil, err
		}
		f := File{Path: filepath.Join(p.Dir, opts.Output), Package: p.Path, Source: src}
		if !opts.DryRun {
			if err := os.WriteFile(f.Path, src, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", f.Path, err)
			}
			logger.Info("wrote registry", "pkg", p.Path, "file", f.Path)
		}
		files = append(files, f)
	}
	return files, nil
}

func warnComplexity(logger *log.Logger, pkgs []*Package, max int) {
	if max <= 0 {
		return
	}
	for _, p := range pkgs {
		for _, c := range p.Classes {
			for _, m := range c.Methods {
				if m.IsTest && m.Complexity > max {
					logger.Warn("test method is complex",
						"method", m.ID, "complexity", m.Complexity, "max", max, "at", m.Location)
				}
			}
		}
	}
}
