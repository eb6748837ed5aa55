package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unbound-force/spyunit/internal/loader"
)

func TestLoad_ValidPackage(t *testing.T) {
	// Load the loader package itself (it's a valid Go package).
	results, err := loader.Load(loader.Options{}, "github.com/unbound-force/spyunit/internal/loader")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 package, got %d", len(results))
	}
	result := results[0]
	if result.Pkg == nil || result.Fset == nil {
		t.Fatal("expected non-nil Pkg and Fset")
	}
	if result.Pkg.PkgPath != "github.com/unbound-force/spyunit/internal/loader" {
		t.Errorf("expected pkg path 'github.com/unbound-force/spyunit/internal/loader', got %q",
			result.Pkg.PkgPath)
	}
	if len(result.Pkg.Syntax) == 0 {
		t.Error("expected parsed syntax")
	}
}

func TestLoad_MultiplePatterns(t *testing.T) {
	results, err := loader.Load(loader.Options{},
		"github.com/unbound-force/spyunit/internal/loader",
		"github.com/unbound-force/spyunit/internal/config",
	)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 packages, got %d", len(results))
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	_, err := loader.Load(loader.Options{}, "github.com/nonexistent/package/that/does/not/exist")
	if err == nil {
		t.Error("expected error for nonexistent package")
	}
}

func TestLoad_BlankIgnoresBrokenFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":   "module example.com/blank\n\ngo 1.24\n",
		"ok.go":    "package blank\n\nfunc OK() int { return 1 }\n",
		"stale.go": "package blank\n\nvar _ = missingSymbol\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := loader.Load(loader.Options{Dir: dir}, "."); err == nil {
		t.Fatal("expected type error without Blank")
	}
	results, err := loader.Load(loader.Options{Dir: dir, Blank: "stale.go"}, ".")
	if err != nil {
		t.Fatalf("Load() with Blank failed: %v", err)
	}
	if results[0].Pkg.Types.Scope().Lookup("OK") == nil {
		t.Error("expected OK to be declared")
	}
}
