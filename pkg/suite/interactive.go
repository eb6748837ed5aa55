package suite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/spyunit/internal/report"
	"github.com/unbound-force/spyunit/pkg/runner"
)

// keyMap defines keybindings for the result browser.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// maxMessage is the widest failure message shown in the results table.
const maxMessage = 50

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// resultsModel is the Bubble Tea model for browsing a finished run.
type resultsModel struct {
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newResultsModel(rep *runner.Report) resultsModel {
	return resultsModel{
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderResultsContent(rep, report.DefaultStyles()),
	}
}

// renderResultsContent renders the browser content: a title, one table
// row per test and the detail of every test that did not pass.
func renderResultsContent(rep *runner.Report, styles report.Styles) string {
	var sb strings.Builder

	passed, failed, errored := rep.Counts()
	sb.WriteString(titleStyle.Render(fmt.Sprintf(
		"spyunit: %d test(s), %d passed, %d failed, %d errored in %.3fs",
		rep.Total, passed, failed, errored, rep.Duration.Seconds())))
	sb.WriteString("\n\n")

	if len(rep.Results) == 0 {
		sb.WriteString(styles.Muted.Render("No tests ran."))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(rep.Results))
	statuses := make([]runner.Status, 0, len(rep.Results))
	for _, res := range rep.Results {
		msg := ""
		if res.Record != nil {
			msg = report.Truncate(firstLine(res.Record.Message), maxMessage)
		}
		target := string(res.Target)
		calls := ""
		if target != "" {
			calls = strconv.Itoa(res.Calls)
		}
		rows = append(rows, []string{string(res.Status), res.ID.String(), target, calls, msg})
		statuses = append(statuses, res.Status)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			if col == 0 && row >= 0 && row < len(statuses) {
				return styles.StatusStyle(statuses[row])
			}
			return styles.TableCell
		}).
		Headers("STATUS", "TEST", "PATCHED", "CALLS", "MESSAGE").
		Rows(rows...)
	sb.WriteString(t.String())
	sb.WriteString("\n\n")

	for _, rec := range rep.Records {
		sb.WriteString(styles.Header.Render(fmt.Sprintf("=== %s ===", rec.ID)))
		sb.WriteString("\n")
		for _, line := range rec.Stack.Lines() {
			sb.WriteString(styles.Muted.Render("    " + line))
			sb.WriteString("\n")
		}
		sb.WriteString(styles.StatusStyle(rec.Status).Render("    " + rec.Message))
		sb.WriteString("\n")
		for _, m := range rec.Debug {
			sb.WriteString(styles.Muted.Render("    | " + m.Message))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (m resultsModel) Init() tea.Cmd {
	return nil
}

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m resultsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := footerStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractive launches the Bubble Tea TUI for browsing rep.
func runInteractive(rep *runner.Report) error {
	p := tea.NewProgram(newResultsModel(rep), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
