package main

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/spyunit/internal/config"
	"github.com/unbound-force/spyunit/internal/gen"
	"github.com/unbound-force/spyunit/internal/report"
	"github.com/unbound-force/spyunit/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "spyunit",
		Short: "spyunit: class-based unit tests with declarative spies",
		Long: `spyunit generates the metadata registry that spyunit test suites
run from, and documents the JSON report those suites produce.`,
		Version: version,
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newGenCmd())
	root.AddCommand(newSchemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// genParams holds the parsed flags for the gen command.
type genParams struct {
	patterns      []string
	dir           string
	configPath    string
	output        string
	maxComplexity int
	dryRun        bool
	verbose       bool

	// set marks flags given on the command line.
	set    map[string]bool
	stdout io.Writer
	logger *charmlog.Logger
}

// runGen is the extracted, testable body of the gen command.
func runGen(p genParams) error {
	cfg, err := loadGenConfig(p)
	if err != nil {
		return err
	}
	if p.verbose || cfg.Verbose {
		p.logger.SetLevel(charmlog.DebugLevel)
	}

	p.logger.Info("generating registry", "patterns", p.patterns)
	files, err := gen.Generate(gen.Options{
		Dir:               p.dir,
		Output:            cfg.Generate.Output,
		MaxTestComplexity: cfg.Generate.MaxTestComplexity,
		DryRun:            p.dryRun,
		Logger:            p.logger,
	}, p.patterns...)
	if err != nil {
		return err
	}

	if p.dryRun {
		for _, f := range files {
			fmt.Fprintf(p.stdout, "// %s\n%s\n", f.Path, f.Source)
		}
	}
	p.logger.Info("generation complete", "files", len(files))
	return nil
}

// loadGenConfig reads the config file nearest to p.dir and applies the
// gen flags over it.
func loadGenConfig(p genParams) (*config.Config, error) {
	path := p.configPath
	if path == "" {
		dir := p.dir
		if dir == "" {
			dir = "."
		}
		found, err := config.Find(dir)
		if err != nil {
			return nil, fmt.Errorf("locating %s: %w", config.FileName, err)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p.set["output"] {
		cfg.Generate.Output = p.output
	}
	if p.set["max-complexity"] {
		cfg.Generate.MaxTestComplexity = p.maxComplexity
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func newGenCmd() *cobra.Command {
	var p genParams

	cmd := &cobra.Command{
		Use:   "gen [packages...]",
		Short: "Generate the test registry of Go packages",
		Long: `Scan Go packages for classes, methods, functions and
//unittest:patch markers, validate every patch target across the
scanned packages, and write the registry file each package's suite
runs from.

Defaults to the package in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			p.patterns = args
			if len(p.patterns) == 0 {
				p.patterns = []string{"."}
			}
			p.dir = dir
			p.set = map[string]bool{
				"output":         cmd.Flags().Changed("output"),
				"max-complexity": cmd.Flags().Changed("max-complexity"),
			}
			p.stdout = cmd.OutOrStdout()
			p.logger = logger
			return runGen(p)
		},
	}

	cmd.Flags().StringVar(&p.configPath, "config", "",
		"path to "+config.FileName+" (default: search upward)")
	cmd.Flags().StringVarP(&p.output, "output", "o", "",
		"registry file name written into each package")
	cmd.Flags().IntVar(&p.maxComplexity, "max-complexity", 0,
		"warn about test methods above this cyclomatic complexity (0 disables)")
	cmd.Flags().BoolVar(&p.dryRun, "dry-run", false,
		"print the generated files instead of writing them")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false,
		"enable debug logging")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for suite report output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of a suite's --format=json and --report output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a spyunit configuration and suite command",
		Long: `Write a commented .spyunit.yaml and a cmd/unittests suite command
into the current directory. Existing files are skipped unless --force
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing files")

	return cmd
}
