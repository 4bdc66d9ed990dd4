package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opal-lang/monitext/core/objfmt"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		format      string
		fingerprint bool
	)

	cmd := &cobra.Command{
		Use:   "compile [FILE|-]",
		Short: "Compile a template and print its object tree",
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

			out := cmd.OutOrStdout()
			if fingerprint {
				fp, err := objfmt.Fingerprint(res.Chain)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, fp)
				return nil
			}
			return writeTree(out, objfmt.Canonicalize(res.Chain), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text, yaml, json or cbor")
	cmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "Print only the structural fingerprint")
	return cmd
}

// writeTree prints a canonical template in format.
func writeTree(w io.Writer, t *objfmt.Template, format string) error {
	switch format {
	case "text", "":
		var b strings.Builder
		writeObjects(&b, t.Objects, 0)
		_, err := io.WriteString(w, b.String())
		return err
	case "yaml":
		data, err := yaml.Marshal(t)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case "cbor":
		data, err := t.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (want text, yaml, json or cbor)", format)
	}
}

// writeObjects prints one object per line, indented by depth:
//
//	1  text "cpu "
//	1  exec uptime
//	2  if_existing /tmp/x [open]
func writeObjects(b *strings.Builder, objects []objfmt.Object, depth int) {
	for _, obj := range objects {
		fmt.Fprintf(b, "%3d  %s%s", obj.Line, strings.Repeat("  ", depth), obj.Kind)
		switch {
		case obj.Kind == "text":
			fmt.Fprintf(b, " %q", obj.Text)
		case obj.Detail != "":
			fmt.Fprintf(b, " %s", obj.Detail)
		}
		if obj.Role != "" {
			fmt.Fprintf(b, " [%s]", obj.Role)
		}
		if obj.Update {
			b.WriteString(" (periodic)")
		}
		b.WriteByte('\n')
		writeObjects(b, obj.Sub, depth+1)
	}
}
