package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/PranavYehale/FCTC-TOOL/internal/logging"
	"github.com/PranavYehale/FCTC-TOOL/internal/workbook"
	"github.com/spf13/cobra"
)

// App holds the global flags and output streams of the CLI.
type App struct {
	stdout io.Writer
	stderr io.Writer

	schemaFile string
	logLevel   string
	logFormat  string
	format     string

	logger *slog.Logger
	reader *workbook.Reader
}

// NewApp creates the CLI writing results to stdout and logs to stderr.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

// Execute runs the CLI with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fctc",
		Short: "Reconcile FCTC exam results with Roll Call rosters",
		Long: `fctc matches the students of an FCTC exam export to a Roll Call roster by
PRN, keeps the best attempt per student and writes the attendance reports:
one master workbook and one workbook per division.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.schemaFile, "schema", os.Getenv("SCHEMA_FILE"), "YAML file replacing the built-in header variants")
	flags.StringVar(&a.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")
	flags.StringVarP(&a.format, "format", "o", "text", "output format: text or json")

	root.AddCommand(
		a.reconcileCommand(),
		a.inspectCommand(),
		a.diagnoseCommand(),
		a.schemaCommand(),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.format != "text" && a.format != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", a.format)
	}
	a.logger = logging.New(a.stderr, a.logLevel, a.logFormat)
	a.reader = workbook.NewReader(0)
	return nil
}

// engine builds an engine from the built-in or --schema variants.
func (a *App) engine() (*core.Engine, error) {
	schemas, err := a.schemas()
	if err != nil {
		return nil, err
	}
	return core.NewEngine(schemas, a.logger), nil
}

func (a *App) schemas() (core.Schemas, error) {
	if a.schemaFile == "" {
		return core.DefaultSchemas(), nil
	}
	schemas, err := core.LoadSchemaFile(a.schemaFile)
	if err != nil {
		return core.Schemas{}, fmt.Errorf("load schema: %w", err)
	}
	return schemas, nil
}

// readPair reads the exam and roster files.
func (a *App) readPair(examPath, rosterPath string) (core.RawTable, core.RawTable, error) {
	exam, err := a.reader.ReadFile(examPath)
	if err != nil {
		return core.RawTable{}, core.RawTable{}, fmt.Errorf("read %s file: %w", core.SourceExam.Title(), err)
	}
	roster, err := a.reader.ReadFile(rosterPath)
	if err != nil {
		return core.RawTable{}, core.RawTable{}, fmt.Errorf("read %s file: %w", core.SourceRoster.Title(), err)
	}
	return exam, roster, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError turns err into the message a user would see in the web UI.
func userError(err error) error {
	if err == nil || !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
