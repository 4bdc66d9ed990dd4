package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/internal/version"
)

//go:embed embedded/schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the embedded schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if compiler.Formats == nil {
			compiler.Formats = make(map[string]func(interface{}) bool)
		}
		for name, validator := range formatValidators() {
			compiler.Formats[name] = validator
		}

		url := "schema://monitext.json"
		if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(url)
	})
	return schema, schemaErr
}

func formatValidators() map[string]func(interface{}) bool {
	return map[string]func(interface{}) bool{
		"duration": func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // Type validation happens separately
			}
			d, err := time.ParseDuration(s)
			return err == nil && d > 0
		},
		"semver": func(v interface{}) bool {
			s, ok := v.(string)
			if !ok || s == "" {
				return true
			}
			return semver.IsValid(version.Canonical(s))
		},
	}
}

// Validate checks a merged configuration map against the embedded schema.
func Validate(raw map[string]interface{}) error {
	s, err := compiledSchema()
	if err != nil {
		return errors.Wrap(errors.ErrConfigInvalid, "config schema does not compile", err)
	}

	doc, err := toJSONValue(raw)
	if err != nil {
		return errors.Wrap(errors.ErrConfigInvalid, "config is not representable as JSON", err)
	}
	if err := s.Validate(doc); err != nil {
		return errors.Wrap(errors.ErrConfigInvalid, "invalid configuration", err)
	}
	return nil
}

// toJSONValue normalizes parser output (int64, float64, nested maps) into
// the generic JSON form the validator expects.
func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckVersion fails when build is older than required. An empty required
// version, or a build version that is not semver (development builds),
// passes.
func CheckVersion(required, build string) error {
	if required == "" {
		return nil
	}
	want := version.Canonical(required)
	if !semver.IsValid(want) {
		return errors.New(errors.ErrConfigInvalid, fmt.Sprintf("min_version %q is not a semantic version", required))
	}
	have := version.Canonical(build)
	if !semver.IsValid(have) {
		return nil
	}
	if semver.Compare(have, want) < 0 {
		return errors.New(errors.ErrConfigInvalid,
			fmt.Sprintf("configuration requires monitext %s or newer, this is %s",
				strings.TrimPrefix(want, "v"), strings.TrimPrefix(have, "v"))).
			WithContext("min_version", required)
	}
	return nil
}
