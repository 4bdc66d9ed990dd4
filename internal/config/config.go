// Package config loads monitext settings in layers: embedded defaults, an
// optional user file (TOML or YAML), MONITEXT_* environment variables and
// finally explicit overrides such as command-line flags. The merged result
// is validated against an embedded JSON Schema before it is decoded.
package config

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/internal/version"
	"github.com/opal-lang/monitext/runtime/parser"
)

// EnvPrefix marks environment variables that override config keys:
// MONITEXT_TEXT_BUFFER_SIZE sets text_buffer_size.
const EnvPrefix = "MONITEXT_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// Config is the effective monitext configuration.
type Config struct {
	TextBufferSize int           `koanf:"text_buffer_size"`
	MaxUserText    int           `koanf:"max_user_text"`
	StartLine      int           `koanf:"start_line"`
	UpdateInterval time.Duration `koanf:"update_interval"`
	Template       string        `koanf:"template"`
	TemplateFile   string        `koanf:"template_file"`
	MinVersion     string        `koanf:"min_version"`

	// Source is the user file that was merged, "" when none was.
	Source string `koanf:"-"`
}

// envKeys lists the keys environment variables may set; true marks keys
// decoded as integers.
var envKeys = map[string]bool{
	"text_buffer_size": true,
	"max_user_text":    true,
	"start_line":       true,
	"update_interval":  false,
	"template":         false,
	"template_file":    false,
	"min_version":      false,
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// DefaultPath returns $XDG_CONFIG_HOME/monitext/monitext.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "monitext", "monitext.toml")
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load(LoadOptions{SkipUserFile: true, SkipEnv: true})
	if err != nil {
		panic(fmt.Sprintf("embedded config defaults are invalid: %v", err))
	}
	return cfg
}

// LoadOptions selects the layers Load merges.
type LoadOptions struct {
	// Path is the user file. Empty means DefaultPath, which may be absent;
	// an explicit Path must exist.
	Path         string
	SkipUserFile bool

	SkipEnv bool

	// Overrides are merged last, keyed like the config file.
	Overrides map[string]interface{}
}

// Load merges every layer, validates the result and decodes it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(errors.ErrConfigLoad, "failed to load defaults", err)
	}

	// 2. User file
	var source string
	if !opts.SkipUserFile {
		path, explicit := opts.Path, opts.Path != ""
		if !explicit {
			path = DefaultPath()
		}
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
				return nil, errors.Wrap(errors.ErrConfigLoad, "failed to load config from "+path, err).
					WithContext("path", path)
			}
			source = path
		} else if explicit {
			return nil, errors.Wrap(errors.ErrConfigLoad, "config file not found", err).
				WithContext("path", path)
		}
	}

	// 3. Environment
	if !opts.SkipEnv {
		if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
			return nil, errors.Wrap(errors.ErrConfigLoad, "failed to load env vars", err)
		}
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(errors.ErrConfigLoad, "failed to load overrides", err)
		}
	}

	if err := Validate(k.Raw()); err != nil {
		return nil, err
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "failed to unmarshal configuration", err)
	}
	cfg.Source = source

	if err := CheckVersion(cfg.MinVersion, version.Version); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parserFor picks the koanf parser by file extension. TOML is the default.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envValue maps MONITEXT_START_LINE=3 to start_line=3. Unknown names are
// skipped.
func envValue(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	isInt, known := envKeys[name]
	if !known {
		return "", nil
	}
	if isInt {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return name, n
		}
	}
	return name, value
}

// ParserOptions translates the configuration into compiler options.
func (c *Config) ParserOptions() []parser.Opt {
	return []parser.Opt{
		parser.WithMaxNameLength(c.TextBufferSize),
		parser.WithMaxTemplateSize(c.MaxUserText),
		parser.WithStartLine(c.StartLine),
	}
}

// ReadTemplate returns the configured template: the template file when one
// is set, the inline template otherwise.
func (c *Config) ReadTemplate() (string, error) {
	if c.TemplateFile == "" {
		return c.Template, nil
	}
	data, err := os.ReadFile(c.TemplateFile)
	if err != nil {
		return "", errors.Wrap(errors.ErrTemplateRead, "cannot read template", err).
			WithContext("path", c.TemplateFile)
	}
	return string(data), nil
}
