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

package network

// Quantity names a physical quantity that carries a unit-conversion
// factor (UCF) between the solver's internal units and the units the
// resolved value is reported in.
type Quantity int

const (
	QuantityFlow Quantity = iota
	QuantityLength
	QuantityVolume
)

// UnitSystem is the host's per-project unit-conversion table (§6: "unit
// conversions"). The zero value is not usable; use DefaultUnitSystem.
type UnitSystem struct {
	Flow   float64
	Length float64
	Volume float64
}

// DefaultUnitSystem returns an identity conversion table, appropriate
// when the solver already reports values in the units the rules expect.
func DefaultUnitSystem() UnitSystem {
	return UnitSystem{Flow: 1, Length: 1, Volume: 1}
}

// UCF returns the conversion factor for q.
func (u UnitSystem) UCF(q Quantity) float64 {
	switch q {
	case QuantityFlow:
		return u.Flow
	case QuantityLength:
		return u.Length
	case QuantityVolume:
		return u.Volume
	default:
		return 1
	}
}
