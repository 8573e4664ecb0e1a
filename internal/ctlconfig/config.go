// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

// Package ctlconfig loads the engine's numeric tunables from a TOML
// file, following the same struct-tag convention the host uses for its
// own node configuration.
package ctlconfig

import (
	"os"

	"github.com/naoina/toml"
)

// Config holds the tunables that spec.md pins to fixed constants but
// that a deployment may want to override (e.g. a reduced stack depth
// for embedded targets, or a looser PID stuck-reset threshold).
type Config struct {
	// StackDepth is the maximum number of slots in the RPN stack.
	StackDepth int `toml:",omitempty"`
	// Epsilon is the tolerance used by stack equality comparisons.
	Epsilon float64 `toml:",omitempty"`
	// BigNumber is the value substituted for divide-by-zero and
	// domain-error results. The stack does not read this field; it uses
	// its own stack.BigNumber constant, so an override here has no effect.
	BigNumber float64 `toml:",omitempty"`
	// Tiny is the relative-error threshold below which a PID error term
	// is snapped to zero.
	Tiny float64 `toml:",omitempty"`
	// StuckThreshold is the |e0-e1| delta below which a PID controller
	// is considered stuck and its history is reset.
	StuckThreshold float64 `toml:",omitempty"`
	// Units overrides the default unit-conversion factors.
	Units UnitConfig `toml:",omitempty"`
}

// UnitConfig mirrors network.UnitSystem so it can be loaded from TOML
// without internal/network depending on the toml tag vocabulary.
type UnitConfig struct {
	Flow   float64 `toml:",omitempty"`
	Length float64 `toml:",omitempty"`
	Volume float64 `toml:",omitempty"`
}

// Default returns the tunables spec.md specifies: stack depth 1000,
// EPSILON 1e-20, BIG_NUMBER 1e32, and US customary (no-op) unit factors.
func Default() Config {
	return Config{
		StackDepth:     1000,
		Epsilon:        1e-20,
		BigNumber:      1e32,
		Tiny:           1e-6,
		StuckThreshold: 1e-4,
		Units:          UnitConfig{Flow: 1, Length: 1, Volume: 1},
	}
}

// Load reads a TOML file at path, applying it over Default() so that
// an omitted field keeps its spec-mandated value.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
