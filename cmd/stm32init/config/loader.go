// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the per-project config file looked up in the project root.
const FileName = ".stm32init.yaml"

// ErrInvalidConfig is returned when a config file fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// validate checks struct tags. Field names in errors use the yaml keys.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads the config at path, falling back to DefaultConfig when the
// file does not exist.
func Load(path string) (Stm32InitConfig, error) {
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile reads the config at path. A missing file is an error.
func LoadFile(path string) (Stm32InitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stm32InitConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Stm32InitConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig and validates the result.
//
// # Description
//
// Keys absent from data keep their default value. Unknown keys are
// rejected so that typos such as `entrypoint:` do not go unnoticed. An
// empty document yields the defaults.
func Parse(data []byte) (Stm32InitConfig, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Stm32InitConfig{}, fmt.Errorf("parsing yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Stm32InitConfig{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its validation tags.
//
// # Outputs
//
//   - error: ErrInvalidConfig wrapping one message per failing field,
//     e.g. "cmake.binary: failed required".
func Validate(cfg Stm32InitConfig) error {
	// Level names match case-insensitively, as in logging.ParseLevel.
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace is "Stm32InitConfig.cmake.binary"; drop the type name.
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		msg := fmt.Sprintf("%s: failed %s", field, fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
