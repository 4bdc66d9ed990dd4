package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/runtime/parser"
	"github.com/opal-lang/monitext/runtime/render"
)

// watchCacheSize bounds the compiled templates kept while watching; an edit
// that is reverted hits the cache.
const watchCacheSize = 4

const clearScreen = "\033[H\033[2J"

func newWatchCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Re-render a template periodically and recompile it when the file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.TemplateFile
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" || path == "-" {
				return fmt.Errorf("watch needs a template file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &watcher{
				app:   a,
				path:  filepath.Clean(path),
				out:   cmd.OutOrStdout(),
				errw:  cmd.ErrOrStderr(),
				cache: parser.NewCache(watchCacheSize),
				clear: isTerminal(cmd.OutOrStdout()),
			}
			defer w.cache.Close()
			return w.run(ctx, count)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after N renders (0 runs until interrupted)")
	return cmd
}

type watcher struct {
	app   *app
	path  string
	out   io.Writer
	errw  io.Writer
	cache *parser.Cache
	clear bool

	renders int
}

func (w *watcher) run(ctx context.Context, count int) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	ticker := time.NewTicker(w.app.cfg.UpdateInterval)
	defer ticker.Stop()

	w.renderOnce()
	for count <= 0 || w.renders < count {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.app.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("Template changed")
			w.renderOnce()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.app.logger.Warn().Err(err).Msg("File watcher error")
		case <-ticker.C:
			w.renderOnce()
		}
	}
	return nil
}

// renderOnce reads, compiles (through the cache) and renders the template.
// Failures are reported and the loop keeps going so a fix can be saved.
func (w *watcher) renderOnce() {
	w.renders++

	data, err := os.ReadFile(w.path)
	if err != nil {
		FormatError(w.errw, err, w.app.styles)
		return
	}
	template := string(data)

	res, hit, err := w.cache.Get(template, w.app.parserOptions()...)
	if err != nil {
		FormatError(w.errw, &templateError{
			source:    w.path,
			template:  template,
			startLine: w.app.cfg.StartLine,
			err:       err,
		}, w.app.styles)
		return
	}
	if !hit {
		printWarnings(w.errw, w.path, res.Warnings, w.app.styles)
	}

	text, err := render.Render(res.Chain)
	if err != nil {
		FormatError(w.errw, fmt.Errorf("%s: %w", w.path, err), w.app.styles)
		return
	}
	if w.clear {
		_, _ = io.WriteString(w.out, clearScreen)
	}
	_, _ = io.WriteString(w.out, text)
	if len(text) == 0 || text[len(text)-1] != '\n' {
		_, _ = io.WriteString(w.out, "\n")
	}
}
