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

// NodeState is the subset of the hydraulic solver's per-node results
// the engine reads (§6: "network state arrays").
type NodeState struct {
	NewDepth   float64
	NewVolume  float64
	NewLatFlow float64
	InvertElev float64
}

// LinkState is the subset of the solver's per-link results the engine
// reads and the subset of control state (targetSetting, timeLastSet)
// it writes.
type LinkState struct {
	// Kind is the link's underlying type: Conduit, Pump, Orifice, Weir, or Outlet.
	Kind ObjectKind

	Direction  float64 // +1 or -1, orientation relative to the rule's reference frame
	NewFlow    float64
	NewDepth   float64
	Setting    float64 // targetSetting, in [0,1] for non-pump links
	TimeLastSet float64 // days, Date+ClockTime at which Setting last changed
}

// Network is the live snapshot of solver state the resolver reads from
// and the arbiter writes to. It is supplied by the host once per step.
type Network struct {
	Nodes []NodeState
	Links []LinkState
	Units UnitSystem
}

// SymbolResolver is the host's name->index lookup table for nodes,
// links, curves, and time series (§6: "project symbol table").
type SymbolResolver interface {
	FindObject(kind ObjectKind, name string) (index int, ok bool)
	FindCurve(name string) (index int, ok bool)
	FindTimeSeries(name string) (index int, ok bool)
}
