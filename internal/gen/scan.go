// Package gen implements `spyunit gen`: it statically enumerates the
// types, methods, functions and markers of Go packages and writes the
// registry source each package's suite runs from.
package gen

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"github.com/fzipp/gocyclo"

	"github.com/unbound-force/spyunit/internal/loader"
	"github.com/unbound-force/spyunit/pkg/registry"
)

const (
	unittestPath = "github.com/unbound-force/spyunit/pkg/unittest"
	patchPath    = "github.com/unbound-force/spyunit/pkg/patch"
)

// Package is the scan result for one Go package.
type Package struct {
	Path string
	Name string
	Dir  string

	// Classes are the named types that declare methods or embed
	// unittest.TestCase, in declaration order.
	Classes []*Class

	// Funcs are the package-level functions in declaration order.
	Funcs []*Method
}

// Class is one scanned named type.
type Class struct {
	Name     string
	TestCase bool
	Methods  []*Method
}

// Method is one scanned method or function.
type Method struct {
	ID         registry.EntityID
	Name       string
	Params     []string
	Results    []string
	Markers    []registry.Marker
	Location   string
	Complexity int

	// IsTest is set for methods of test cases that carry the test prefix.
	IsTest bool

	// TakesSpy is set when the only parameter is *patch.Spy.
	TakesSpy bool

	// ReturnsError is set when the only result is error.
	ReturnsError bool

	// directiveErrs holds marker directives that failed to parse.
	directiveErrs []error
}

// ClassID returns the registry identifier of c in pkg.
func (p *Package) ClassID(c *Class) registry.ClassID {
	return registry.ClassID(p.Name + "." + c.Name)
}

// Scan enumerates the declarations of one loaded package. Files named
// skip are ignored.
func Scan(res *loader.Result, skip string) (*Package, error) {
	pkg := res.Pkg
	if len(pkg.GoFiles) == 0 {
		return nil, fmt.Errorf("package %s has no Go files", pkg.PkgPath)
	}
	p := &Package{
		Path: pkg.PkgPath,
		Name: pkg.Name,
		Dir:  filepath.Dir(pkg.GoFiles[0]),
	}
	s := &scanner{
		pkg:     p,
		info:    pkg.TypesInfo,
		fset:    res.Fset,
		classes: make(map[string]*Class),
		qual:    func(tp *types.Package) string { return tp.Name() },
	}

	var files []*ast.File
	for _, f := range pkg.Syntax {
		if filepath.Base(res.Fset.Position(f.Package).Filename) == skip {
			continue
		}
		files = append(files, f)
	}

	// Types first so methods declared before their type still attach.
	for _, f := range files {
		s.scanTypes(f)
	}
	for _, f := range files {
		s.scanFuncs(f)
	}

	kept := p.Classes[:0]
	for _, c := range p.Classes {
		if c.TestCase || len(c.Methods) > 0 {
			kept = append(kept, c)
		}
	}
	p.Classes = kept
	return p, nil
}

type scanner struct {
	pkg     *Package
	info    *types.Info
	fset    *token.FileSet
	classes map[string]*Class
	qual    types.Qualifier
}

func (s *scanner) scanTypes(f *ast.File) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.TypeParams != nil || ts.Assign.IsValid() {
				continue
			}
			obj, ok := s.info.Defs[ts.Name].(*types.TypeName)
			if !ok {
				continue
			}
			c := &Class{Name: ts.Name.Name, TestCase: embedsTestCase(obj.Type())}
			s.classes[c.Name] = c
			s.pkg.Classes = append(s.pkg.Classes, c)
		}
	}
}

func (s *scanner) scanFuncs(f *ast.File) {
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Type.TypeParams != nil {
			continue
		}
		fn, ok := s.info.Defs[fd.Name].(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)

		if fd.Recv == nil {
			if fd.Name.Name == "init" || fd.Name.Name == "main" {
				continue
			}
			m := s.method(fd, sig, s.pkg.Name+"."+fd.Name.Name)
			s.pkg.Funcs = append(s.pkg.Funcs, m)
			continue
		}

		c, ok := s.classes[receiverName(fd.Recv.List[0].Type)]
		if !ok {
			continue
		}
		m := s.method(fd, sig, s.pkg.Name+"."+c.Name+"."+fd.Name.Name)
		if c.TestCase && strings.HasPrefix(m.Name, registry.TestPrefix) {
			m.IsTest = true
			m.Complexity = gocyclo.Complexity(fd)
		}
		c.Methods = append(c.Methods, m)
	}
}

func (s *scanner) method(fd *ast.FuncDecl, sig *types.Signature, qualified string) *Method {
	m := &Method{
		Name:     fd.Name.Name,
		Params:   s.params(sig),
		Results:  s.results(sig),
		Location: s.location(fd.Pos()),
	}
	m.ID = entityID(qualified, m.Params, m.Results)

	if sig.Params().Len() == 1 && isNamed(sig.Params().At(0).Type(), patchPath, "Spy", true) {
		m.TakesSpy = true
	}
	if sig.Results().Len() == 1 && types.Identical(sig.Results().At(0).Type(), errorType) {
		m.ReturnsError = true
	}

	if fd.Doc != nil {
		for _, c := range fd.Doc.List {
			mk, ok, err := registry.ParseDirective(c.Text)
			switch {
			case err != nil:
				m.directiveErrs = append(m.directiveErrs,
					fmt.Errorf("%s: %w", s.location(c.Pos()), err))
			case ok:
				m.Markers = append(m.Markers, mk)
			}
		}
	}
	return m
}

func (s *scanner) params(sig *types.Signature) []string {
	n := sig.Params().Len()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t := sig.Params().At(i).Type()
		if sig.Variadic() && i == n-1 {
			out = append(out, "..."+types.TypeString(t.(*types.Slice).Elem(), s.qual))
			continue
		}
		out = append(out, types.TypeString(t, s.qual))
	}
	return out
}

func (s *scanner) results(sig *types.Signature) []string {
	n := sig.Results().Len()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.TypeString(sig.Results().At(i).Type(), s.qual))
	}
	return out
}

func (s *scanner) location(pos token.Pos) string {
	p := s.fset.Position(pos)
	return fmt.Sprintf("%s:%d", filepath.Base(p.Filename), p.Line)
}

// entityID renders "<qualified>(<params>) <results>".
func entityID(qualified string, params, results []string) registry.EntityID {
	id := qualified + "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		id += " " + results[0]
	default:
		id += " (" + strings.Join(results, ", ") + ")"
	}
	return registry.EntityID(id)
}

var errorType = types.Universe.Lookup("error").Type()

// receiverName returns the base type name of a receiver expression.
func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.ParenExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

func embedsTestCase(t types.Type) bool {
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if f.Embedded() && isNamed(f.Type(), unittestPath, "TestCase", false) {
			return true
		}
	}
	return false
}

// isNamed reports whether t is the named type path.name, behind a
// pointer when ptr is set.
func isNamed(t types.Type, path, name string, ptr bool) bool {
	if ptr {
		p, ok := t.(*types.Pointer)
		if !ok {
			return false
		}
		t = p.Elem()
	}
	n, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := n.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == path && obj.Name() == name
}
