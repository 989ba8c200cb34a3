package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/PranavYehale/FCTC-TOOL/internal/workbook"
	"github.com/spf13/cobra"
)

func (a *App) reconcileCommand() *cobra.Command {
	var examPath, rosterPath, outDir, year string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Build the master and division reports",
		Example: `  fctc reconcile --exam fctc.xlsx --roster rollcall.xlsx --out reports
  fctc reconcile --exam fctc.csv --roster rollcall.xlsx --out reports --year II -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year != "" {
				if _, err := core.ValidateYear(year, nil); err != nil {
					return userError(err)
				}
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			exam, roster, err := a.readPair(examPath, rosterPath)
			if err != nil {
				return userError(err)
			}
			report, err := engine.Run(exam, roster)
			if err != nil {
				return userError(err)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			files, err := core.WriteReport(workbook.NewWriter(), outDir, report, a.logger)
			if err != nil {
				return userError(err)
			}

			if a.format == "json" {
				return a.printJSON(core.ProcessResult{
					MatchedStudents: report.Summary.Present,
					GeneratedFiles:  files,
					Year:            year,
					Summary:         report.Summary,
				})
			}

			s := report.Summary
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Total Students\t%d\n", s.Total)
			fmt.Fprintf(tw, "Present Count\t%d\n", s.Present)
			fmt.Fprintf(tw, "Absent Count\t%d\n", s.Absent)
			fmt.Fprintf(tw, "Attendance %%\t%s\n", s.AttendanceLabel())
			fmt.Fprintf(tw, "Duplicate Attempts\t%d\n", s.DuplicateAttempts)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\nWrote %d files to %s:\n", len(files), outDir)
			for _, f := range files {
				fmt.Fprintf(a.stdout, "  %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&examPath, "exam", "", "FCTC exam export (.xlsx, .xlsm or .csv)")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "Roll Call roster (.xlsx, .xlsm or .csv)")
	cmd.Flags().StringVar(&outDir, "out", "outputs", "directory receiving the reports")
	cmd.Flags().StringVar(&year, "year", "", "academic year recorded with the run (I, II, III, 1, 2 or 3)")
	cmd.MarkFlagRequired("exam")
	cmd.MarkFlagRequired("roster")
	return cmd
}

// Inspection is the output of the inspect command.
type Inspection struct {
	File      string                    `json:"file"`
	Source    core.Source               `json:"source"`
	HeaderRow int                       `json:"header_row"`
	Headers   []string                  `json:"headers"`
	Rows      int                       `json:"rows"`
	Mapping   map[core.FieldName]string `json:"mapping"`
	Unmatched []core.FieldName          `json:"unmatched,omitempty"`
}

func (a *App) inspectCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the detected header row and column mapping of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas, err := a.schemas()
			if err != nil {
				return err
			}
			var schema core.Schema
			switch core.Source(source) {
			case core.SourceExam:
				schema = schemas.Exam
			case core.SourceRoster:
				schema = schemas.Roster
			default:
				return fmt.Errorf("unknown source %q (want %s or %s)", source, core.SourceExam, core.SourceRoster)
			}

			raw, err := a.reader.ReadFile(args[0])
			if err != nil {
				return userError(err)
			}
			table, err := core.DetectHeader(raw)
			if err != nil {
				return userError(err)
			}
			res := core.ResolveColumns(table.Headers, schema)

			in := Inspection{
				File:      args[0],
				Source:    core.Source(source),
				HeaderRow: table.HeaderRow() + 1,
				Headers:   table.Headers,
				Rows:      len(table.Rows),
				Mapping:   res.Mapping,
				Unmatched: res.Unmatched,
			}
			if a.format == "json" {
				return a.printJSON(in)
			}

			fmt.Fprintf(a.stdout, "%s (%s)\n", in.File, core.Source(source).Title())
			fmt.Fprintf(a.stdout, "Header row %d, %d data rows\n\n", in.HeaderRow, in.Rows)
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tCOLUMN")
			for _, f := range schema.Fields {
				col, ok := res.Mapping[f.Name]
				if !ok {
					col = "-"
					if f.Critical {
						col = "- (required)"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\n", f.DisplayName(), col)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&source, "source", string(core.SourceExam), "schema to resolve against: exam or roster")
	return cmd
}

func (a *App) diagnoseCommand() *cobra.Command {
	var examPath, rosterPath string

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Explain how the PRNs of two files line up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			exam, roster, err := a.readPair(examPath, rosterPath)
			if err != nil {
				return userError(err)
			}
			d := engine.Diagnose(exam, roster)
			if a.format == "json" {
				return a.printJSON(d)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tFCTC\tRoll Call")
			fmt.Fprintf(tw, "Rows\t%d\t%d\n", d.ExamRowCount, d.RosterRowCount)
			fmt.Fprintf(tw, "Extracted\t%d\t%d\n", d.ExamExtracted, d.RosterExtracted)
			fmt.Fprintf(tw, "Unique PRNs\t%d\t%d\n", d.ExamUnique, d.RosterUnique)
			fmt.Fprintf(tw, "Sample\t%s\t%s\n", strings.Join(d.ExamSample, ", "), strings.Join(d.RosterSample, ", "))
			if d.ExamError != "" || d.RosterError != "" {
				fmt.Fprintf(tw, "Error\t%s\t%s\n", d.ExamError, d.RosterError)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\nMatching PRNs: %d\n", d.Matching)
			if len(d.SampleMatches) > 0 {
				fmt.Fprintf(a.stdout, "Sample matches: %s\n", strings.Join(d.SampleMatches, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&examPath, "exam", "", "FCTC exam export")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "Roll Call roster")
	cmd.MarkFlagRequired("exam")
	cmd.MarkFlagRequired("roster")
	return cmd
}

func (a *App) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the effective header variants as YAML",
		Long: `Print the header variants in effect. Save the output, edit it and pass it
back with --schema (or SCHEMA_FILE) to accept new column spellings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schemas, err := a.schemas()
			if err != nil {
				return err
			}
			out, err := schemas.YAML()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}
