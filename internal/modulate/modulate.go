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

// Package modulate implements the curve-, time-series-, and
// stack-driven setting computations (C9) an action's SETTING driver
// can dispatch to.
package modulate

import (
	"math"

	"github.com/probechain/go-rulectl/internal/stack"
)

// CurveSource is the host's curve table (§6: "Curve[]").
type CurveSource interface {
	// Lookup interpolates curveIndex at x, returning ok=false for an
	// unknown index.
	Lookup(curveIndex int, x float64) (float64, bool)
}

// TimeSeriesSource is the host's time-series table (§6: "Tseries[]").
type TimeSeriesSource interface {
	// Lookup samples tsIndex at t. extend=true holds the last known
	// value past the series' final entry instead of failing.
	Lookup(tsIndex int, t float64, extend bool) (float64, bool)
}

// Curve resolves a CURVE-driven action: value = curve_lookup(curve, ControlValue).
func Curve(src CurveSource, curveIndex int, controlValue float64) (float64, bool) {
	if src == nil {
		return 0, false
	}
	return src.Lookup(curveIndex, controlValue)
}

// TimeSeries resolves a TIMESERIES-driven action: value =
// tseries_lookup(tseries, currentTime, extend=true).
func TimeSeries(src TimeSeriesSource, tsIndex int, currentTime float64) (float64, bool) {
	if src == nil {
		return 0, false
	}
	return src.Lookup(tsIndex, currentTime, true)
}

// StackTop resolves a STACK-driven action: value = peek() (0 when empty).
func StackTop(s *stack.Stack) float64 {
	v := s.Peek()
	if math.IsNaN(v) {
		return 0
	}
	return v
}
