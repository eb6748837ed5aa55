package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/spyunit/pkg/registry"
)

// WriteList writes the discovered test cases as a table: one row per
// test method with its patch target and cyclomatic complexity.
func WriteList(w io.Writer, cases []registry.TestCaseDescriptor) error {
	s := DefaultStyles()

	// Budget: 80 cols. Borders take 5 and cell padding 4, leaving
	// CASE=16, METHOD=24, PATCHES=26, CPLX=4.
	var rows [][]string
	for _, tc := range cases {
		for _, m := range tc.Methods {
			target := "-"
			if req, err := m.PatchRequest(); err == nil {
				name, _, _ := strings.Cut(string(req.Target), "(")
				target = truncateLeft(name, 26)
			}
			cplx := "-"
			if m.Complexity > 0 {
				cplx = strconv.Itoa(m.Complexity)
			}
			rows = append(rows, []string{Truncate(tc.Name, 16), Truncate(m.Name, 24), target, cplx})
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		}).
		Headers("CASE", "METHOD", "PATCHES", "CPLX").
		Rows(rows...)

	if _, err := fmt.Fprintln(w, t); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, s.Header.Render(fmt.Sprintf(
		"%d test case(s), %d test method(s)", len(cases), len(rows))))
	return err
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// truncateLeft keeps the end of s, where the type and method names are.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-(n-3):])
}
