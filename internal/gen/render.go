package gen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// Header marks generated registry files.
const Header = "// Code generated by spyunit gen. DO NOT EDIT."

var fileTmpl = template.Must(template.New("registry").Funcs(template.FuncMap{
	"quote":   quote,
	"strings": quoteList,
}).Parse(`{{ .Header }}

package {{ .Pkg.Name }}

import (
	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/registry"
)

// UnittestClasses returns the registry metadata of package {{ .Pkg.Name }}.
func UnittestClasses() []registry.Class {
	return []registry.Class{
{{- range .Classes }}
		{
			ID:   {{ quote .ID }},
			Name: {{ quote .Name }},
{{- if .TestCase }}
			TestCase: true,
			New:      func() any { return new({{ .Name }}) },
{{- end }}
			Methods: []registry.MethodMetadata{
{{- range .Methods }}
				{
					ID:       {{ quote .ID }},
					Name:     {{ quote .Name }},
					Params:   {{ strings .Params }},
					Results:  {{ strings .Results }},
					Location: {{ quote .Location }},
{{- if .Markers }}
					Markers: []registry.Marker{
{{- range .Markers }}
						{Name: {{ quote .Name }}, Args: {{ strings .Args }}},
{{- end }}
					},
{{- end }}
{{- if .Complexity }}
					Complexity: {{ .Complexity }},
{{- end }}
{{- if .Invoke }}
					Invoke: func(recv any, args ...any) error {
						{{ .Invoke }}
					},
{{- end }}
				},
{{- end }}
			},
		},
{{- end }}
	}
}
`))

type fileData struct {
	Header  string
	Pkg     *Package
	Classes []classData
}

type classData struct {
	ID       string
	Name     string
	TestCase bool
	Methods  []methodData
}

type methodData struct {
	*Method
	Invoke string
}

// Render returns the formatted registry source for p.
func Render(p *Package) ([]byte, error) {
	data := fileData{Header: Header, Pkg: p}
	for _, c := range p.Classes {
		cd := classData{ID: string(p.ClassID(c)), Name: c.Name, TestCase: c.TestCase}
		for _, m := range c.Methods {
			md := methodData{Method: m}
			if m.IsTest {
				md.Invoke = invokeBody(c.Name, m)
			}
			cd.Methods = append(cd.Methods, md)
		}
		data.Classes = append(data.Classes, cd)
	}
	if len(p.Funcs) > 0 {
		cd := classData{ID: p.Name, Name: p.Name}
		for _, m := range p.Funcs {
			cd.Methods = append(cd.Methods, methodData{Method: m})
		}
		data.Classes = append(data.Classes, cd)
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering registry for %s: %w", p.Path, err)
	}
	// imports.Process drops the patch import when no test takes a spy
	// and gofmts the result.
	out, err := imports.Process(p.Name+".go", buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting registry for %s: %w\n%s", p.Path, err, buf.Bytes())
	}
	return out, nil
}

// invokeBody is the body of the closure that calls test method m on a
// *class receiver.
func invokeBody(class string, m *Method) string {
	call := fmt.Sprintf("recv.(*%s).%s(", class, m.Name)
	if m.TakesSpy {
		call += "args[0].(*patch.Spy)"
	}
	call += ")"
	if m.ReturnsError {
		return "return " + call
	}
	return call + "\n\t\t\t\t\t\treturn nil"
}

func quote(v any) string {
	return strconv.Quote(fmt.Sprint(v))
}

func quoteList(ss []string) string {
	if len(ss) == 0 {
		return "nil"
	}
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(q, ", ") + "}"
}
