package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/scorecharts/internal/config"
	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	"github.com/JonMunkholm/scorecharts/internal/table"
)

func newDetectCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the inferred column mapping as YAML",
		Long: `detect reads the file's header and prints the column mapping render would
use. Edit the output and pass it back with render --mapping to override it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService(cfg, 0, 0, 0)
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}

			tbl, err := svc.Parse(name, data)
			if err != nil {
				return err
			}
			m, err := svc.Detect(tbl)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encode mapping: %w", err)
			}
			return enc.Close()
		},
	}
}

// readMappingFile loads a YAML mapping written by detect or by hand.
func readMappingFile(path string) (*core.ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m core.ColumnMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &core.Issue{Err: core.ErrInvalidMapping, Detail: err.Error()}
	}
	m.Format = core.FormatPaired
	for i := range m.Pairs {
		m.Pairs[i].LooksLikePercentage = core.LooksLikePercentage(m.Pairs[i].PercentageColumn)
	}
	return &m, nil
}

// readInput rejects unsupported file types before touching the disk.
func readInput(path string) (string, []byte, error) {
	if err := table.CheckSupported(path); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read input: %w", err)
	}
	return filepath.Base(path), data, nil
}

// newService sizes a pipeline for one CLI run. Zero arguments fall back to
// the configuration.
func newService(cfg *config.Config, workers, width, height int) *pipeline.Service {
	if workers <= 0 {
		workers = cfg.Render.Workers
	}
	if width <= 0 {
		width = cfg.Render.Width
	}
	if height <= 0 {
		height = cfg.Render.Height
	}
	return pipeline.NewService(pipeline.Config{
		MaxConcurrentRuns: 1,
		MaxWaitTime:       cfg.Upload.MaxWaitTime,
		RunTimeout:        cfg.Upload.Timeout,
		RenderWorkers:     workers,
		ChartWidth:        width,
		ChartHeight:       height,
	}, nil, nil)
}
