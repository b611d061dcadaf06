package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scorecharts/internal/config"
	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/export"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
)

const defaultFormats = "pdf,zip,png,csv,xlsx"

type renderFlags struct {
	out         string
	mappingPath string
	formats     string

	averageLine bool
	averageBar  bool
	summary     bool
	titlePrefix string

	workers int
	width   int
	height  int
}

func newRenderCmd(cfg *config.Config) *cobra.Command {
	f := renderFlags{
		averageLine: cfg.Chart.ShowAverageLine,
		averageBar:  cfg.Chart.ShowAverageBar,
		summary:     cfg.Chart.ShowSummaryTable,
		titlePrefix: cfg.Chart.TitlePrefix,
	}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw one chart per student and write the bundles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, cfg, f, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.out, "out", "o", ".", "Output directory")
	flags.StringVarP(&f.mappingPath, "mapping", "m", "", "YAML column mapping (default: detect from the header)")
	flags.StringVar(&f.formats, "formats", defaultFormats, "Comma-separated outputs: pdf, zip, png, csv, xlsx")
	flags.BoolVar(&f.averageLine, "average-line", f.averageLine, "Draw the average as a dashed line")
	flags.BoolVar(&f.averageBar, "average-bar", f.averageBar, "Add the average as a final bar")
	flags.BoolVar(&f.summary, "summary", f.summary, "Print the overall summary table")
	flags.StringVar(&f.titlePrefix, "title-prefix", f.titlePrefix, "Text before the student name in chart titles")
	flags.IntVar(&f.workers, "workers", 0, "Charts drawn in parallel (default: from config)")
	flags.IntVar(&f.width, "width", 0, "Chart width in pixels (default: from config)")
	flags.IntVar(&f.height, "height", 0, "Chart height in pixels (default: from config)")
	return cmd
}

func runRender(cmd *cobra.Command, cfg *config.Config, f renderFlags, path string) error {
	formats, err := parseFormats(f.formats)
	if err != nil {
		return err
	}
	if len(f.titlePrefix) > 120 {
		return fmt.Errorf("title prefix must be at most 120 characters")
	}

	req := pipeline.Request{
		Options: pipeline.Options{
			ShowAverageLine:  f.averageLine,
			ShowAverageBar:   f.averageBar,
			ShowSummaryTable: f.summary,
			TitlePrefix:      f.titlePrefix,
		},
	}
	req.FileName, req.Data, err = readInput(path)
	if err != nil {
		return err
	}
	if f.mappingPath != "" {
		if req.Mapping, err = readMappingFile(f.mappingPath); err != nil {
			return err
		}
	}

	svc := newService(cfg, f.workers, f.width, f.height)
	res, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	written, err := writeOutputs(f.out, formats, res)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if res.Options.ShowSummaryTable {
		printSummary(w, res.Records)
	}
	green := color.New(color.FgGreen)
	green.Fprintf(w, "%d charts from %s in %s\n", len(res.Charts), res.FileName, res.Duration.Round(time.Millisecond))
	for _, name := range written {
		fmt.Fprintf(w, "  %s\n", filepath.Join(f.out, name))
	}
	return nil
}

func parseFormats(s string) ([]export.Format, error) {
	var formats []export.Format
	seen := make(map[export.Format]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := export.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output formats given")
	}
	return formats, nil
}

// writeOutputs writes every requested artifact into dir and returns the
// file names in the order written.
func writeOutputs(dir string, formats []export.Format, res *pipeline.Result) ([]string, error) {
	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		if err := writeFile(filepath.Join(dir, name), fn); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, name)
		return nil
	}

	for _, f := range formats {
		var err error
		switch f {
		case export.FormatPDF:
			err = write(export.BundlePDFName, func(w io.Writer) error { return export.WritePDF(w, res.Charts) })
		case export.FormatZip:
			err = write(export.BundleZipName, func(w io.Writer) error { return export.WriteZip(w, res.Charts) })
		case export.FormatCSV:
			err = write(export.SummaryCSVName, func(w io.Writer) error { return export.WriteSummaryCSV(w, res.Records) })
		case export.FormatXLSX:
			err = write(export.SummaryXLSXName, func(w io.Writer) error { return export.WriteSummaryXLSX(w, res.Records) })
		case export.FormatPNG:
			names := export.NewNamer(export.FormatPNG)
			for _, c := range res.Charts {
				err = write(names.Next(c.Student), func(w io.Writer) error {
					_, err := w.Write(c.PNG())
					return err
				})
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func printSummary(w io.Writer, records []core.StudentRecord) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(core.SummaryHeader)
	for _, rec := range records {
		table.Append(rec.SummaryRow())
	}
	table.Render()
}
