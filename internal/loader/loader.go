// Package loader wraps go/packages to load the packages the registry
// generator scans, with full syntax and type information.
package loader

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode is the set of flags the generator needs: syntax for doc
// comments and complexity, types for signatures and embedding.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// Result holds one loaded package along with convenience accessors.
type Result struct {
	// Pkg is the loaded package.
	Pkg *packages.Package

	// Fset is the shared file set for position information.
	Fset *token.FileSet
}

// Options controls Load.
type Options struct {
	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string

	// Blank names a file that is replaced by an empty file of the same
	// package before type checking. The generator uses it for its own
	// output so a stale registry never blocks regeneration.
	Blank string
}

// Load loads every package matching patterns. It fails if no package
// matches or if any package has errors.
func Load(opts Options, patterns ...string) ([]*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	overlay, err := blankOverlay(opts, patterns)
	if err != nil {
		return nil, err
	}

	cfg := &packages.Config{
		Mode:    LoadMode,
		Dir:     opts.Dir,
		Tests:   false,
		Overlay: overlay,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %q: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for patterns %q", patterns)
	}

	// Check for package-level errors (syntax, type errors, etc.).
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("packages %q have errors:\n  %s",
			patterns, strings.Join(errs, "\n  "))
	}

	results := make([]*Result, 0, len(pkgs))
	for _, pkg := range pkgs {
		results = append(results, &Result{Pkg: pkg, Fset: pkg.Fset})
	}
	return results, nil
}

// blankOverlay lists the files matching opts.Blank and maps each to a
// bare package clause.
func blankOverlay(opts Options, patterns []string) (map[string][]byte, error) {
	if opts.Blank == "" {
		return nil, nil
	}
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedFiles, Dir: opts.Dir}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("listing packages %q: %w", patterns, err)
	}
	overlay := make(map[string][]byte)
	fset := token.NewFileSet()
	for _, pkg := range pkgs {
		for _, f := range pkg.GoFiles {
			if filepath.Base(f) != opts.Blank {
				continue
			}
			file, err := parser.ParseFile(fset, f, nil, parser.PackageClauseOnly)
			if err != nil {
				return nil, fmt.Errorf("reading package clause of %s: %w", f, err)
			}
			overlay[f] = []byte("package " + file.Name.Name + "\n")
		}
	}
	return overlay, nil
}
