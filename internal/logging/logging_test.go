package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func restoreGlobals(t *testing.T) {
	level := zerolog.GlobalLevel()
	logger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	})
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)

			var buf bytes.Buffer
			SetupLogger(tt.verbosity, &buf)

			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("SetupLogger(%d) set level to %v, want %v",
					tt.verbosity, zerolog.GlobalLevel(), tt.wantLevel)
			}
		})
	}
}

func TestSetupLoggerWritesToWriter(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	SetupLogger(0, &buf)

	logger := GetLogger("parser")
	logger.Warn().Msg("unterminated block")
	logger.Info().Msg("hidden at warn level")

	out := buf.String()
	assert.Contains(t, out, "unterminated block")
	assert.Contains(t, out, "component=parser")
	assert.NotContains(t, out, "hidden at warn level")
}

func TestLogOperationStart(t *testing.T) {
	restoreGlobals(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	done := LogOperationStart(logger, "compile")
	assert.Contains(t, buf.String(), `"message":"Operation started"`)

	done()
	assert.Contains(t, buf.String(), `"operation":"compile"`)
	assert.Contains(t, buf.String(), `"message":"Operation completed"`)
	assert.Contains(t, buf.String(), `"duration"`)
}
