// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/auralspace/auralspace/axis"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonc")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		// Stage deployment.
		"participant_id": "participant/alpha",
		"mixer_address": "mixer/main",
		"tick_interval_ms": 20,
		"max_reconnect_attempts": 4,
		"reconnect_backoff_ms": 250,
		"axes": {
			"right": "+X",
			"left": "-X",
			"into_screen": "-Z",
			"out_of_screen": "+Z",
			"up": "+Y",
			"down": "-Y",
			"handedness": "right-handed",
			"rotation_order": "yaw-pitch-roll", // trailing comma below is fine
		},
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.ParticipantID != "participant/alpha" {
		t.Errorf("ParticipantID = %q", config.ParticipantID)
	}
	if config.MixerAddress != "mixer/main" {
		t.Errorf("MixerAddress = %q", config.MixerAddress)
	}
	if config.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %s, want 20ms", config.TickInterval)
	}
	if config.MaxReconnectAttempts != 4 {
		t.Errorf("MaxReconnectAttempts = %d, want 4", config.MaxReconnectAttempts)
	}
	if config.ReconnectBackoff != 250*time.Millisecond {
		t.Errorf("ReconnectBackoff = %s, want 250ms", config.ReconnectBackoff)
	}

	want := axis.Config{
		Right:         axis.PositiveX,
		Left:          axis.NegativeX,
		IntoScreen:    axis.NegativeZ,
		OutOfScreen:   axis.PositiveZ,
		Up:            axis.PositiveY,
		Down:          axis.NegativeY,
		Handedness:    axis.RightHanded,
		RotationOrder: axis.YawPitchRoll,
	}
	if config.Axis != want {
		t.Errorf("Axis = %+v, want %+v", config.Axis, want)
	}
}

func TestLoadConfigOmittedAxesSelectsDefault(t *testing.T) {
	path := writeConfigFile(t, `{
		"participant_id": "participant/alpha",
		"mixer_address": "mixer/main"
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Axis != (axis.Config{}) {
		t.Errorf("Axis = %+v, want zero value (defaulted at session construction)", config.Axis)
	}
	if got := config.withDefaults().Axis; got != axis.Default() {
		t.Errorf("withDefaults Axis = %+v, want axis.Default()", got)
	}
}

func TestLoadConfigRejectsBadAxisBinding(t *testing.T) {
	path := writeConfigFile(t, `{
		"participant_id": "participant/alpha",
		"mixer_address": "mixer/main",
		"axes": {
			"right": "north",
			"left": "-X",
			"into_screen": "+Y",
			"out_of_screen": "-Y",
			"up": "+Z",
			"down": "-Z",
			"handedness": "right-handed",
			"rotation_order": "yaw-pitch-roll"
		}
	}`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted an unknown axis binding")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("LoadConfig succeeded on a missing file")
	}
}

func TestConfigDefaults(t *testing.T) {
	config := Config{
		ParticipantID: "participant/alpha",
		MixerAddress:  "mixer/main",
	}.withDefaults()

	if config.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %s, want %s", config.TickInterval, DefaultTickInterval)
	}
	if config.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("MaxReconnectAttempts = %d, want %d", config.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if config.ReconnectBackoff != DefaultReconnectBackoff {
		t.Errorf("ReconnectBackoff = %s, want %s", config.ReconnectBackoff, DefaultReconnectBackoff)
	}
	if config.Axis != axis.Default() {
		t.Errorf("Axis = %+v, want axis.Default()", config.Axis)
	}
}
