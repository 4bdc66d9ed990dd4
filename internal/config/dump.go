package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileView is the on-disk shape of a Config. Durations are written the way
// users write them ("1s").
type fileView struct {
	TextBufferSize int    `toml:"text_buffer_size" yaml:"text_buffer_size"`
	MaxUserText    int    `toml:"max_user_text" yaml:"max_user_text"`
	StartLine      int    `toml:"start_line" yaml:"start_line"`
	UpdateInterval string `toml:"update_interval" yaml:"update_interval"`
	Template       string `toml:"template" yaml:"template"`
	TemplateFile   string `toml:"template_file" yaml:"template_file"`
	MinVersion     string `toml:"min_version" yaml:"min_version"`
}

// Dump renders cfg as "toml" or "yaml". The output loads back to the same
// Config.
func Dump(cfg *Config, format string) ([]byte, error) {
	view := fileView{
		TextBufferSize: cfg.TextBufferSize,
		MaxUserText:    cfg.MaxUserText,
		StartLine:      cfg.StartLine,
		UpdateInterval: cfg.UpdateInterval.String(),
		Template:       cfg.Template,
		TemplateFile:   cfg.TemplateFile,
		MinVersion:     cfg.MinVersion,
	}

	switch format {
	case "toml", "":
		return toml.Marshal(view)
	case "yaml", "yml":
		return yaml.Marshal(view)
	default:
		return nil, fmt.Errorf("unknown config format %q (want toml or yaml)", format)
	}
}
