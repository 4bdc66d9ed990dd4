package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/registry"
)

// kindView is the JSON shape of a registered kind.
type kindView struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Usage   string `json:"usage,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func newKindsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the variable kinds templates can reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := registry.Default().Export()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				views := make([]kindView, 0, len(descriptors))
				for _, d := range descriptors {
					views = append(views, kindView{Name: d.Name, Role: d.Role.String(), Usage: d.Usage, Summary: d.Summary})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			case "text", "":
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			usageWidth := 0
			for _, d := range descriptors {
				usageWidth = max(usageWidth, lipgloss.Width(d.Usage))
			}
			column := lipgloss.NewStyle().Width(usageWidth + 2)
			for _, d := range descriptors {
				line := a.styles.render(a.styles.name, column.Render(d.Usage)) + d.Summary
				if d.Role != textobj.BlockNone {
					line += a.styles.render(a.styles.dim, " ["+d.Role.String()+"]")
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text or json")
	return cmd
}
