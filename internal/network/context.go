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

// Context is the per-step shared evaluation state (spec.md §3: "Shared
// evaluation context"). It is overwritten by the most recent
// comparison premise and consumed by PID/curve/time-series actions.
type Context struct {
	// Date is the current simulation date, in whole days.
	Date float64
	// ClockTime is the time of day, as a day fraction in [0,1).
	ClockTime float64
	// ElapsedTime is the total simulated time, in days.
	ElapsedTime float64
	// ReportStep is the results-store sampling interval, in seconds.
	ReportStep float64
	// TStep is the current routing step size, in days.
	TStep float64

	// SetPoint and ControlValue record the RHS and LHS of the most
	// recent plain comparison premise (§4.5 step 6). They are consumed
	// by PID controllers and modulated setters (§4.8, §4.9).
	SetPoint     float64
	ControlValue float64
}
