package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "vsearch.yaml", "Output file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "data_dir:        %s\n", a.cfg.DataDir)
			fmt.Fprintf(cmd.OutOrStdout(), "log:             %s (%s)\n", a.cfg.Log.Level, a.cfg.Log.Format)
			fmt.Fprintf(cmd.OutOrStdout(), "bucket_count:    %d\n", a.cfg.Index.BucketCount)
			fmt.Fprintf(cmd.OutOrStdout(), "top_n:           %d\n", a.cfg.Index.TopN)
			fmt.Fprintf(cmd.OutOrStdout(), "store:           %s\n", a.cfg.Store.Backend)
			fmt.Fprintf(cmd.OutOrStdout(), "compression:     %s\n", a.cfg.Store.Compression)
			fmt.Fprintf(cmd.OutOrStdout(), "otlp_endpoint:   %s\n", a.cfg.Telemetry.OTLPEndpoint)
			return nil
		},
	}
}
