// Command scorecharts turns a spreadsheet of student scores into per-student
// bar charts from the command line.
//
// Usage:
//
//	scorecharts detect scores.xlsx > mapping.yaml
//	scorecharts render scores.xlsx --out charts/
//	scorecharts render scores.csv --mapping mapping.yaml --formats pdf,csv
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scorecharts/internal/config"
	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/logging"
)

func main() {
	// A missing .env is normal for the CLI
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// Logs go to stderr so stdout stays clean for YAML and tables.
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	root := newRootCmd(cfg)
	if err := root.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "scorecharts",
		Short: "Generate per-student score charts from a spreadsheet",
		Long: `scorecharts reads a CSV or Excel file with one student per row, a name
column and (subject, percentage) column pairs, and draws one bar chart per
student with their average.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDetectCmd(cfg), newRenderCmd(cfg))
	return root
}

// printError reports err with its user message, code and located issues.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if !core.IsUserFacing(err) {
		red.Fprintf(w, "error: %v\n", err)
		return
	}

	red.Fprintf(w, "error: %s\n", core.FormatUserError(err))
	issues := core.IssuesOf(err)
	for _, is := range issues {
		color.New(color.FgYellow).Fprintf(w, "  - %s\n", is.Error())
	}
	if len(issues) == 0 {
		fmt.Fprintf(w, "  %v\n", err)
	}
}
