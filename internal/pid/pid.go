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

// Package pid implements the three discrete PID control laws (C8) a
// rule action can drive a link setting with.
package pid

import (
	"math"

	"github.com/probechain/go-rulectl/internal/rules"
)

// Variant selects which of the three update laws Update applies.
type Variant int

const (
	Classic  Variant = iota // PID
	Variant2                // PID2
	Variant3                // PID3
)

// relativeError computes e0 = (setPoint-controlValue)/setPoint, falling
// back to dividing by controlValue when setPoint is zero, and snaps
// near-zero results to exactly zero.
func relativeError(setPoint, controlValue, tiny float64) float64 {
	var e0 float64
	if setPoint != 0 {
		e0 = (setPoint - controlValue) / setPoint
	} else {
		e0 = (setPoint - controlValue) / controlValue
	}
	if math.Abs(e0) <= tiny {
		e0 = 0
	}
	return e0
}

// Update advances one controller step: it computes the relative error
// against errs' history, applies the selected law, and returns the new
// link setting (clamped per isPump). errs is mutated in place to carry
// the shifted error history into the next step.
func Update(variant Variant, coeffs rules.PIDCoeffs, errs *rules.PIDErrors,
	setPoint, controlValue, targetSetting, tStepDays, tiny, stuckThreshold float64, isPump bool) float64 {

	dtMin := tStepDays * 1440
	e0 := relativeError(setPoint, controlValue, tiny)

	if math.Abs(e0-errs.E1) < stuckThreshold {
		errs.E1, errs.E2, errs.E3 = 0, 0, 0
	}

	p := e0 - errs.E1

	var i float64
	if coeffs.Ki != 0 {
		i = e0 * dtMin / coeffs.Ki
	}

	d := func(numerator float64) float64 {
		if dtMin == 0 {
			return 0
		}
		return coeffs.Kd * numerator / dtMin
	}

	var update float64
	switch variant {
	case Classic:
		update = coeffs.Kp * (p + i + d(e0-2*errs.E1+errs.E2))
	case Variant2:
		update = coeffs.Kp*p + i + d(e0-2*errs.E1+errs.E2)
	case Variant3:
		update = coeffs.Kp*p + i + d(e0-(3*errs.E1-2*errs.E2-errs.E3))
	}

	if math.Abs(update) < stuckThreshold {
		update = 0
	}

	setting := targetSetting + update
	if setting < 0 {
		setting = 0
	}
	if !isPump && setting > 1 {
		setting = 1
	}

	if variant == Variant3 {
		errs.E3 = errs.E2
	}
	errs.E2 = errs.E1
	errs.E1 = e0

	return setting
}
