// Package scaffold embeds a starter configuration and suite command and
// writes them to a target module directory.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

//go:embed assets/*
var assets embed.FS

// targets maps each embedded asset to the path it is written to,
// relative to the target directory.
var targets = map[string]string{
	"spyunit.yaml": ".spyunit.yaml",
	"main.go.tmpl": filepath.Join("cmd", "unittests", "main.go"),
}

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is embedded in the version marker comment.
	// Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	Created     []string
	Skipped     []string
	Overwritten []string
}

// versionMarker returns the comment line prepended to the asset.
func versionMarker(asset, version string) string {
	if version == "" {
		version = "dev"
	}
	if filepath.Ext(asset) == ".yaml" {
		return fmt.Sprintf("# scaffolded by spyunit %s\n", version)
	}
	return fmt.Sprintf("// scaffolded by spyunit %s\n\n", version)
}

// Run writes the embedded assets into opts.TargetDir. Existing files
// are skipped unless opts.Force is set. Each file starts with a version
// marker comment.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if _, err := os.Stat(filepath.Join(opts.TargetDir, "go.mod")); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no go.mod found in target directory.")
		fmt.Fprintln(opts.Stdout, "spyunit suites are built as commands of a Go module.")
		fmt.Fprintln(opts.Stdout)
	}

	paths, err := AssetPaths()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, asset := range paths {
		rel := targets[asset]
		outPath := filepath.Join(opts.TargetDir, rel)

		_, statErr := os.Stat(outPath)
		exists := statErr == nil
		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		content, err := AssetContent(asset)
		if err != nil {
			return nil, fmt.Errorf("reading embedded asset %s: %w", asset, err)
		}
		dir := filepath.Dir(outPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
		out := append([]byte(versionMarker(asset, opts.Version)), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", rel, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, rel)
		} else {
			result.Created = append(result.Created, rel)
		}
	}

	printSummary(opts.Stdout, result)
	return result, nil
}

func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "spyunit initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `spyunit gen ./...` and then `go run ./cmd/unittests`.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// AssetPaths returns the names of all embedded assets, sorted.
func AssetPaths() ([]string, error) {
	entries, err := assets.ReadDir("assets")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := targets[e.Name()]; !ok {
			return nil, fmt.Errorf("embedded asset %s has no target path", e.Name())
		}
		paths = append(paths, e.Name())
	}
	sort.Strings(paths)
	return paths, nil
}

// AssetContent returns the raw content of an embedded asset.
func AssetContent(name string) ([]byte, error) {
	return assets.ReadFile("assets/" + name)
}

// TargetPath returns where asset name is written, relative to the
// target directory.
func TargetPath(name string) string {
	return targets[name]
}
