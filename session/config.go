// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/auralspace/auralspace/axis"
)

// Defaults applied by Config.withDefaults.
const (
	// DefaultTickInterval is the sampling/transmission period.
	DefaultTickInterval = 50 * time.Millisecond

	// DefaultMaxReconnectAttempts bounds the reconnect loop.
	DefaultMaxReconnectAttempts = 5

	// DefaultReconnectBackoff is the delay before the first reconnect
	// attempt. Subsequent attempts double it.
	DefaultReconnectBackoff = 500 * time.Millisecond
)

// Config holds the parameters of one session with the mixing service.
type Config struct {
	// ParticipantID identifies this participant to the mixer. Required.
	ParticipantID string

	// MixerAddress is the signaling address of the mixer. Required.
	MixerAddress string

	// TickInterval is the sampling/transmission period. Zero selects
	// DefaultTickInterval.
	TickInterval time.Duration

	// MaxReconnectAttempts bounds the reconnect loop after a mid-session
	// link loss. Zero selects DefaultMaxReconnectAttempts.
	MaxReconnectAttempts int

	// ReconnectBackoff is the delay before the first reconnect attempt;
	// attempt n waits ReconnectBackoff << (n-1). Zero selects
	// DefaultReconnectBackoff.
	ReconnectBackoff time.Duration

	// Axis declares the host application's coordinate convention. The
	// zero value selects axis.Default().
	Axis axis.Config
}

// withDefaults returns a copy with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = DefaultReconnectBackoff
	}
	if c.Axis == (axis.Config{}) {
		c.Axis = axis.Default()
	}
	return c
}

// validate checks required parameters and the axis configuration. The
// returned error carries KindInvalidParameters or
// KindInvalidAxisConfiguration.
func (c Config) validate(logger *slog.Logger) error {
	if c.ParticipantID == "" {
		return newError(KindInvalidParameters, "participant ID is required")
	}
	if c.MixerAddress == "" {
		return newError(KindInvalidParameters, "mixer address is required")
	}
	if c.TickInterval < 0 {
		return newError(KindInvalidParameters, "tick interval must be positive, got %s", c.TickInterval)
	}
	if c.MaxReconnectAttempts < 0 {
		return newError(KindInvalidParameters, "max reconnect attempts must be non-negative, got %d", c.MaxReconnectAttempts)
	}
	if err := axis.Validate(c.Axis, logger); err != nil {
		return wrapError(KindInvalidAxisConfiguration, err, "axis configuration rejected")
	}
	return nil
}

// fileConfig is the on-disk JSONC schema. Durations are expressed in
// milliseconds; axis bindings use the "+X"/"-Y" signed axis notation.
type fileConfig struct {
	ParticipantID        string          `json:"participant_id"`
	MixerAddress         string          `json:"mixer_address"`
	TickIntervalMS       int             `json:"tick_interval_ms"`
	MaxReconnectAttempts int             `json:"max_reconnect_attempts"`
	ReconnectBackoffMS   int             `json:"reconnect_backoff_ms"`
	Axes                 *fileAxisConfig `json:"axes"`
}

type fileAxisConfig struct {
	Right         string `json:"right"`
	Left          string `json:"left"`
	IntoScreen    string `json:"into_screen"`
	OutOfScreen   string `json:"out_of_screen"`
	Up            string `json:"up"`
	Down          string `json:"down"`
	Handedness    string `json:"handedness"`
	RotationOrder string `json:"rotation_order"`
}

// LoadConfig reads a session configuration from a JSONC file. Comments
// and trailing commas are permitted. Omitted fields take their defaults;
// an omitted "axes" block selects axis.Default().
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading session config: %w", err)
	}

	var file fileConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return Config{}, fmt.Errorf("parsing session config %s: %w", path, err)
	}

	config := Config{
		ParticipantID:        file.ParticipantID,
		MixerAddress:         file.MixerAddress,
		TickInterval:         time.Duration(file.TickIntervalMS) * time.Millisecond,
		MaxReconnectAttempts: file.MaxReconnectAttempts,
		ReconnectBackoff:     time.Duration(file.ReconnectBackoffMS) * time.Millisecond,
	}

	if file.Axes != nil {
		axisConfig, err := parseAxisConfig(*file.Axes)
		if err != nil {
			return Config{}, fmt.Errorf("parsing session config %s: %w", path, err)
		}
		config.Axis = axisConfig
	}

	return config, nil
}

// parseAxisConfig converts the string-notation axis block into an
// axis.Config. Validation happens later, at connect time.
func parseAxisConfig(file fileAxisConfig) (axis.Config, error) {
	var config axis.Config
	var err error

	bindings := []struct {
		role   string
		value  string
		target *axis.SignedAxis
	}{
		{"right", file.Right, &config.Right},
		{"left", file.Left, &config.Left},
		{"into_screen", file.IntoScreen, &config.IntoScreen},
		{"out_of_screen", file.OutOfScreen, &config.OutOfScreen},
		{"up", file.Up, &config.Up},
		{"down", file.Down, &config.Down},
	}
	for _, binding := range bindings {
		if *binding.target, err = axis.ParseSignedAxis(binding.value); err != nil {
			return axis.Config{}, fmt.Errorf("axis role %s: %w", binding.role, err)
		}
	}

	if config.Handedness, err = axis.ParseHandedness(file.Handedness); err != nil {
		return axis.Config{}, err
	}
	if config.RotationOrder, err = axis.ParseRotationOrder(file.RotationOrder); err != nil {
		return axis.Config{}, err
	}
	return config, nil
}
