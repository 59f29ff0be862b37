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

import "time"

// Stm32InitConfig is the content of a .stm32init.yaml file.
type Stm32InitConfig struct {
	// CMake: how cmake is invoked for presets and build tasks
	CMake CMakeConfig `yaml:"cmake"`

	// Debug: probe and entry point written into launch.json
	Debug DebugConfig `yaml:"debug"`

	// Logging: level, format and optional log directory
	Logging LoggingConfig `yaml:"logging"`

	// Tracing: OpenTelemetry spans for each init step
	Tracing TracingConfig `yaml:"tracing"`

	// Watch: settings for `stm32init watch`
	Watch WatchConfig `yaml:"watch"`
}

type CMakeConfig struct {
	Binary string `yaml:"binary" validate:"required"` // e.g. cmake, /opt/cmake/bin/cmake
}

type DebugConfig struct {
	InterfaceConfig string `yaml:"interface_config" validate:"required,endswith=.cfg"` // e.g. interface/stlink-v2.cfg
	EntryPoint      string `yaml:"entry_point" validate:"required"`                    // e.g. main
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir,omitempty"` // empty disables file logging
}

type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output,omitempty"` // span file; empty means stderr
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0,lte=1m"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Stm32InitConfig {
	return Stm32InitConfig{
		CMake: CMakeConfig{Binary: "cmake"},
		Debug: DebugConfig{
			InterfaceConfig: "interface/stlink-v2.cfg",
			EntryPoint:      "main",
		},
		Logging: LoggingConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: 500 * time.Millisecond},
	}
}
