package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/runtime/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "render [FILE|-]",
		Short: "Compile a template and print its current text",
		Long: `Compile a template and render it once.

Periodic variables such as execi compute their first value in the
background; --wait gives them time to finish before rendering.`,
		Args: cobra.MaximumNArgs(1),
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

			if wait > 0 {
				time.Sleep(wait)
			}
			text, err := render.Render(res.Chain)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait before rendering so periodic variables can update")
	return cmd
}
