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

// Package network is the value resolver (C2): it maps an object
// reference plus attribute to a live scalar reading from the host's
// network state, applying unit conversion. It also carries the shared
// per-step evaluation context (current date/time, SetPoint,
// ControlValue) and the small set of types both the rule compiler and
// the evaluator share (object kinds, attributes, object references).
package network

// ObjectKind identifies the kind of object a reference names.
type ObjectKind int

const (
	KindNode ObjectKind = iota
	KindLink
	KindConduit
	KindPump
	KindOrifice
	KindWeir
	KindOutlet
	KindSimulation
	KindStack
)

var objectKindNames = [...]string{
	KindNode: "NODE", KindLink: "LINK", KindConduit: "CONDUIT",
	KindPump: "PUMP", KindOrifice: "ORIFICE", KindWeir: "WEIR",
	KindOutlet: "OUTLET", KindSimulation: "SIMULATION", KindStack: "STACK",
}

func (k ObjectKind) String() string {
	if int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return "UNKNOWN"
}

// IsLinkFamily reports whether a kind denotes some flavor of link
// (generic LINK or one of the typed link kinds).
func (k ObjectKind) IsLinkFamily() bool {
	switch k {
	case KindLink, KindConduit, KindPump, KindOrifice, KindWeir, KindOutlet:
		return true
	default:
		return false
	}
}

// HasName reports whether the object kind requires a <name> token when
// parsed (SIMULATION and STACK never do).
func (k ObjectKind) HasName() bool {
	return k != KindSimulation && k != KindStack
}

// Attribute identifies which field of an object a premise or action
// reads or writes.
type Attribute int

const (
	AttrDepth Attribute = iota
	AttrHead
	AttrVolume
	AttrInflow
	AttrFlow
	AttrStatus
	AttrSetting
	AttrTimeOpen
	AttrTimeClosed
	AttrTime
	AttrDate
	AttrClockTime
	AttrDay
	AttrMonth
	AttrStackResult
	AttrStackOp
)

var attributeNames = [...]string{
	AttrDepth: "DEPTH", AttrHead: "HEAD", AttrVolume: "VOLUME",
	AttrInflow: "INFLOW", AttrFlow: "FLOW", AttrStatus: "STATUS",
	AttrSetting: "SETTING", AttrTimeOpen: "TIMEOPEN", AttrTimeClosed: "TIMECLOSED",
	AttrTime: "TIME", AttrDate: "DATE", AttrClockTime: "CLOCKTIME",
	AttrDay: "DAY", AttrMonth: "MONTH", AttrStackResult: "RESULT", AttrStackOp: "OP",
}

func (a Attribute) String() string {
	if int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return "UNKNOWN"
}

// ValidForKind reports whether attribute a may appear on an object of
// kind k, per the whitelist in spec.md §3/§6.
func ValidForKind(k ObjectKind, a Attribute) bool {
	switch k {
	case KindNode:
		switch a {
		case AttrDepth, AttrHead, AttrVolume, AttrInflow:
			return true
		}
	case KindLink, KindConduit:
		switch a {
		case AttrStatus, AttrDepth, AttrFlow, AttrTimeOpen, AttrTimeClosed:
			return true
		}
	case KindPump:
		switch a {
		case AttrFlow, AttrStatus, AttrTimeOpen, AttrTimeClosed:
			return true
		}
	case KindOrifice, KindWeir, KindOutlet:
		switch a {
		case AttrSetting, AttrTimeOpen, AttrTimeClosed:
			return true
		}
	case KindSimulation:
		switch a {
		case AttrTime, AttrDate, AttrClockTime, AttrDay, AttrMonth:
			return true
		}
	case KindStack:
		switch a {
		case AttrStackResult, AttrStackOp:
			return true
		}
	}
	return false
}

// Ref identifies the target of a premise or action: an object kind
// plus a name-resolved index (absent for Simulation and Stack).
type Ref struct {
	Kind      ObjectKind
	Index     int
	HasIndex  bool
	Attribute Attribute
}
