package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Dump(a.cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "toml", "Output format: toml or yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			state := "missing"
			if _, err := os.Stat(path); err == nil {
				state = "present"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, state)
			if a.cfg.Source != "" && a.cfg.Source != path {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loaded: %s\n", a.cfg.Source)
			}
			return nil
		},
	})
	return cmd
}
