package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/internal/logging"
	"github.com/opal-lang/monitext/runtime/parser"
)

// readTemplate resolves the template to compile:
//  1. an explicit file argument, or "-" for stdin
//  2. template_file or template from the configuration
//  3. piped stdin
//
// It returns a display name for diagnostics and the template text.
func (a *app) readTemplate(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) > 0 {
		if args[0] == "-" {
			return readStdin(cmd)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("error opening template %s: %w", args[0], err)
		}
		return args[0], string(data), nil
	}

	if a.cfg.TemplateFile != "" || a.cfg.Template != "" {
		text, err := a.cfg.ReadTemplate()
		if err != nil {
			return "", "", err
		}
		if a.cfg.TemplateFile != "" {
			return a.cfg.TemplateFile, text, nil
		}
		return "<config>", text, nil
	}

	if hasPipedInput(cmd.InOrStdin()) {
		return readStdin(cmd)
	}
	return "", "", fmt.Errorf("no template given: pass a file, \"-\" for stdin, or set template_file in the config")
}

func readStdin(cmd *cobra.Command) (string, string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("error reading stdin: %w", err)
	}
	return "<stdin>", string(data), nil
}

// hasPipedInput detects if there's data piped to stdin
func hasPipedInput(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// compile parses template with the configured options and reports warnings
// on stderr. The caller owns the result.
func (a *app) compile(cmd *cobra.Command, source, template string) (*parser.Result, error) {
	done := logging.LogOperationStart(a.logger, "compile "+source)
	defer done()

	res, err := parser.Parse(template, a.parserOptions()...)
	if err != nil {
		return nil, &templateError{source: source, template: template, startLine: a.cfg.StartLine, err: err}
	}
	printWarnings(cmd.ErrOrStderr(), source, res.Warnings, a.styles)

	if t := res.Telemetry; t != nil {
		a.logger.Debug().
			Int("objects", t.ObjectCount).
			Int("tokens", t.TokenCount).
			Int("env_hits", t.EnvHits).
			Int("max_block_depth", t.MaxBlockDepth).
			Dur("total", t.TotalTime).
			Msg("Template compiled")
	}
	return res, nil
}
