package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/core/objfmt"
)

func newCheckCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [FILE|-]",
		Short: "Validate a template and report its diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, template, err := a.readTemplate(cmd, args)
			if err != nil {
				return err
			}
			res, err := a.compile(cmd, source, template)
			if err != nil {
				return err
			}
			defer res.Release()

			if strict && res.HasWarnings() {
				return fmt.Errorf("%s: %d warning(s) in strict mode", source, len(res.Warnings))
			}

			fp, err := objfmt.Fingerprint(res.Chain)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d objects, %d warnings, lines %d-%d, %s\n",
				a.styles.render(a.styles.ok, "ok"),
				source,
				res.Chain.Count(),
				len(res.Warnings),
				a.cfg.StartLine,
				res.EndLine,
				a.styles.render(a.styles.dim, fp))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}
