package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vsearch"
	"github.com/hupe1980/vsearch/index"
	"github.com/hupe1980/vsearch/internal/config"
	"github.com/hupe1980/vsearch/internal/resource"
	"github.com/hupe1980/vsearch/internal/telemetry"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	dataDir    string
	logLevel   string

	cfg       *config.Config
	logger    *vsearch.Logger
	telemetry *telemetry.Provider
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "vsearch",
		Short:         "Sparse-vector document search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.telemetry == nil {
				return nil
			}
			return a.telemetry.Shutdown(context.WithoutCancel(cmd.Context()))
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Engine directory (overrides data_dir)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newVocabCmd(a),
		newIngestCmd(a),
		newBuildCmd(a),
		newQueryCmd(a),
		newSimilarCmd(a),
		newStatsCmd(a),
		newPublishCmd(a),
		newFetchCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if cfg.Log.Format == "json" {
		a.logger = vsearch.NewJSONLogger(level)
	} else {
		a.logger = vsearch.NewTextLogger(level)
	}

	a.telemetry, err = telemetry.Init(cmd.Context(), vsearch.TracerName, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		SampleRate:   cfg.Telemetry.SampleRate,
		Insecure:     true,
	})
	return err
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// openEngine opens the engine configured for this invocation.
func (a *app) openEngine(ctx context.Context) (*vsearch.Engine, error) {
	cfg := a.cfg
	return vsearch.Open(ctx, cfg.DataDir,
		vsearch.WithLogger(a.logger),
		vsearch.WithTracer(a.telemetry.Tracer()),
		vsearch.WithBucketCount(cfg.Index.BucketCount),
		vsearch.WithQueryOptions(index.QueryOptions{
			MaxScanDimensions: cfg.Index.MaxScanDimensions,
			MaxScanNodes:      cfg.Index.MaxScanNodes,
			TopN:              cfg.Index.TopN,
		}),
		vsearch.WithResourceConfig(resource.Config{
			MaxWorkers:         cfg.Resources.MaxWorkers,
			MemoryLimitBytes:   cfg.Resources.MemoryLimitMB << 20,
			IOLimitBytesPerSec: cfg.Resources.IOLimitMBPerSec << 20,
		}),
	)
}
