package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/runtime/parser"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	want := &Config{
		TextBufferSize: 256,
		MaxUserText:    16384,
		StartLine:      1,
		UpdateInterval: time.Second,
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadUserFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "toml",
			file:    "monitext.toml",
			content: "start_line = 3\nupdate_interval = \"250ms\"\ntemplate = \"$nodename\"\n",
		},
		{
			name:    "yaml",
			file:    "monitext.yaml",
			content: "start_line: 3\nupdate_interval: 250ms\ntemplate: $nodename\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			cfg, err := Load(LoadOptions{Path: path, SkipEnv: true})
			require.NoError(t, err)

			assert.Equal(t, 3, cfg.StartLine)
			assert.Equal(t, 250*time.Millisecond, cfg.UpdateInterval)
			assert.Equal(t, "$nodename", cfg.Template)
			assert.Equal(t, 256, cfg.TextBufferSize, "unset keys keep their defaults")
			assert.Equal(t, path, cfg.Source)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "nope.toml"), SkipEnv: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrConfigLoad))
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	cfg, err := Load(LoadOptions{SkipEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Source)
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	path := filepath.Join(home, "monitext", "monitext.toml")
	assert.Equal(t, path, DefaultPath())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("max_user_text = 0\n"), 0o644))

	cfg, err := Load(LoadOptions{SkipEnv: true})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxUserText)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MONITEXT_START_LINE", "7")
	t.Setenv("MONITEXT_UPDATE_INTERVAL", "2s")
	t.Setenv("MONITEXT_TEMPLATE", "42")
	t.Setenv("MONITEXT_SOMETHING_ELSE", "ignored")

	cfg, err := Load(LoadOptions{SkipUserFile: true})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.StartLine)
	assert.Equal(t, 2*time.Second, cfg.UpdateInterval)
	assert.Equal(t, "42", cfg.Template, "template stays a string even when numeric")
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "monitext.toml", "start_line = 3\ntext_buffer_size = 64\nmax_user_text = 100\n")
	t.Setenv("MONITEXT_START_LINE", "5")
	t.Setenv("MONITEXT_TEXT_BUFFER_SIZE", "32")

	cfg, err := Load(LoadOptions{
		Path:      path,
		Overrides: map[string]interface{}{"start_line": 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.StartLine, "overrides beat env")
	assert.Equal(t, 32, cfg.TextBufferSize, "env beats the file")
	assert.Equal(t, 100, cfg.MaxUserText, "file beats defaults")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour = \"red\"\n"},
		{"zero buffer", "text_buffer_size = 0\n"},
		{"negative cap", "max_user_text = -1\n"},
		{"zero start line", "start_line = 0\n"},
		{"bad interval", "update_interval = \"soon\"\n"},
		{"negative interval", "update_interval = \"-1s\"\n"},
		{"wrong type", "start_line = \"one\"\n"},
		{"bad min version", "min_version = \"latest\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "monitext.toml", tt.content)
			_, err := Load(LoadOptions{Path: path, SkipEnv: true})
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("MONITEXT_TEXT_BUFFER_SIZE", "big")

	_, err := Load(LoadOptions{SkipUserFile: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrConfigInvalid))
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "monitext.toml", "start_line = = 3\n")
	_, err := Load(LoadOptions{Path: path, SkipEnv: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrConfigLoad))
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		required string
		build    string
		wantErr  bool
	}{
		{"", "0.1.0", false},
		{"0.1.0", "0.1.0", false},
		{"v0.1.0", "0.2.0", false},
		{"1.0.0", "0.9.9", true},
		{"1.0.0", "dev", false},
		{"soon", "1.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.required+"/"+tt.build, func(t *testing.T) {
			err := CheckVersion(tt.required, tt.build)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRejectsNewerMinVersion(t *testing.T) {
	path := writeFile(t, "monitext.toml", "min_version = \"999.0.0\"\n")
	_, err := Load(LoadOptions{Path: path, SkipEnv: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires monitext 999.0.0 or newer")
}

func TestDumpLoadsBack(t *testing.T) {
	want := &Config{
		TextBufferSize: 128,
		MaxUserText:    0,
		StartLine:      4,
		UpdateInterval: 1500 * time.Millisecond,
		Template:       "${exec uptime}\n$hr",
		TemplateFile:   "",
		MinVersion:     "0.1.0",
	}

	for _, format := range []string{"toml", "yaml"} {
		t.Run(format, func(t *testing.T) {
			data, err := Dump(want, format)
			require.NoError(t, err)

			path := writeFile(t, "monitext."+format, string(data))
			got, err := Load(LoadOptions{Path: path, SkipEnv: true})
			require.NoError(t, err)
			got.Source = ""
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := Dump(want, "ini")
	assert.Error(t, err)
}

func TestParserOptions(t *testing.T) {
	cfg := Default()
	assert.Equal(t,
		parser.Key("$x", parser.WithMaxNameLength(256), parser.WithMaxTemplateSize(16384), parser.WithStartLine(1)),
		parser.Key("$x", cfg.ParserOptions()...))

	cfg.StartLine = 5
	assert.NotEqual(t, parser.Key("$x"), parser.Key("$x", cfg.ParserOptions()...))
}

func TestReadTemplate(t *testing.T) {
	cfg := Default()
	cfg.Template = "inline"
	got, err := cfg.ReadTemplate()
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	cfg.TemplateFile = writeFile(t, "t.conky", "from file")
	got, err = cfg.ReadTemplate()
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	cfg.TemplateFile = filepath.Join(t.TempDir(), "missing")
	_, err = cfg.ReadTemplate()
	assert.True(t, errors.IsErrorType(err, errors.ErrTemplateRead))
}
