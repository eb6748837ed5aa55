// Package suite is the entry point of a test binary. A suite's main
// package passes the generated registry classes of every package under
// test to Main:
//
//	func main() {
//		suite.Main(example.UnittestClasses()...)
//	}
//
// Main runs every test method, prints a progress line per test to stdout
// and the failure blocks and summary to stderr, then exits 0 when all
// tests passed, 1 when any failed and 2 on a definition or usage error.
package suite

import (
	"fmt"
	"io"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/unbound-force/spyunit/internal/config"
	"github.com/unbound-force/spyunit/internal/report"
	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/registry"
	"github.com/unbound-force/spyunit/pkg/runner"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailed     = 1
	ExitDefinition = 2
)

// Set by build flags.
var version = "dev"

// Main runs the suite built from classes and exits the process.
func Main(classes ...registry.Class) {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr, classes...))
}

// Execute parses args, runs the suite built from classes and returns the
// exit code instead of exiting.
func Execute(args []string, stdout, stderr io.Writer, classes ...registry.Class) int {
	code := ExitOK
	cmd := newCommand(stdout, stderr, classes, &code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitDefinition
	}
	return code
}

// params holds the parsed flags of a suite binary.
type params struct {
	classes     []registry.Class
	configPath  string
	format      string
	verbose     bool
	debug       bool
	list        bool
	interactive bool
	reportPath  string

	// set marks flags given on the command line; they win over the
	// config file.
	set map[string]bool

	table  *patch.Table
	now    func() time.Time
	stdout io.Writer
	stderr io.Writer
}

func newCommand(stdout, stderr io.Writer, classes []registry.Class, code *int) *cobra.Command {
	p := params{classes: classes, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run the registered unit tests",
		Long: `Run every test method of every registered test case in
declaration order and report failures.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.set = make(map[string]bool)
			for _, name := range []string{"format", "verbose", "debug", "report"} {
				p.set[name] = cmd.Flags().Changed(name)
			}
			c, err := run(p)
			*code = c
			return err
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&p.configPath, "config", "",
		"path to "+config.FileName+" (default: search upward from the working directory)")
	cmd.Flags().StringVar(&p.format, "format", config.FormatText,
		"report format: text or json")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false,
		"log harness activity at debug level")
	cmd.Flags().BoolVar(&p.debug, "debug", false,
		"print captured debug output of failed tests")
	cmd.Flags().BoolVar(&p.list, "list", false,
		"list test cases and patch targets without running them")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"browse results in an interactive TUI after the run")
	cmd.Flags().StringVar(&p.reportPath, "report", "",
		"also write the JSON report to this file")

	return cmd
}

// run is the extracted, testable body of the suite command. Definition
// and option errors are printed to stderr and only change the exit code;
// a returned error is an output failure.
func run(p params) (int, error) {
	cfg, err := loadConfig(p)
	if err != nil {
		fmt.Fprintln(p.stderr, err)
		return ExitDefinition, nil
	}

	logger := charmlog.NewWithOptions(p.stderr, charmlog.Options{
		ReportTimestamp: false,
		Prefix:          "spyunit",
	})
	if cfg.Verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	reg, err := registry.Build(p.classes...)
	if err != nil {
		fmt.Fprintln(p.stderr, err)
		return ExitDefinition, nil
	}
	logger.Debug("registry built", "classes", reg.Len())

	if p.list {
		if err := report.WriteList(p.stdout, reg.ListTestCases()); err != nil {
			return ExitDefinition, err
		}
		return ExitOK, nil
	}

	styled := isTerminal(p.stdout)
	opts := []runner.Option{runner.WithLogger(logger)}
	if p.table != nil {
		opts = append(opts, runner.WithTable(p.table))
	}
	if p.now != nil {
		opts = append(opts, runner.WithClock(p.now))
	}
	if cfg.Format == config.FormatText && !p.interactive {
		opts = append(opts, runner.WithObserver(report.NewProgress(p.stdout, styled)))
	}

	rep, err := runner.New(reg, opts...).Run()
	if err != nil {
		fmt.Fprintln(p.stderr, err)
		return ExitDefinition, nil
	}

	if cfg.ReportPath != "" {
		if err := writeReportFile(cfg.ReportPath, rep); err != nil {
			return ExitDefinition, err
		}
		logger.Info("wrote report", "path", cfg.ReportPath)
	}

	code := ExitOK
	if !rep.OK() {
		code = ExitFailed
	}

	if p.interactive {
		if err := runInteractive(rep); err != nil {
			return ExitDefinition, err
		}
		return code, nil
	}

	switch cfg.Format {
	case config.FormatJSON:
		if err := report.WriteJSON(p.stdout, rep, version); err != nil {
			return ExitDefinition, err
		}
	default:
		code = report.WriteText(p.stderr, rep, report.TextOptions{
			Debug:  cfg.Debug,
			Styled: isTerminal(p.stderr),
		})
	}
	return code, nil
}

// loadConfig reads the config file and applies the command-line flags
// over it.
func loadConfig(p params) (*config.Config, error) {
	path := p.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, fmt.Errorf("locating %s: %w", config.FileName, err)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if p.set["format"] {
		cfg.Format = p.format
	}
	if p.set["verbose"] {
		cfg.Verbose = p.verbose
	}
	if p.set["debug"] {
		cfg.Debug = p.debug
	}
	if p.set["report"] {
		cfg.ReportPath = p.reportPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func writeReportFile(path string, rep *runner.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := report.WriteJSON(f, rep, version); err != nil {
		f.Close()
		return fmt.Errorf("writing report file: %w", err)
	}
	return f.Close()
}

// isTerminal reports whether w is a terminal, which enables styling.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
