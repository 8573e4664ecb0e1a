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

// Package rules implements the rule compiler (C4): it turns tokenized
// clauses into a Rule with a premise list and two action lists.
//
// Premises and actions are owned by a single rule and are never shared,
// so they are represented as plain owned slices (append-built) rather
// than the original's singly-linked lists — same iteration order, one
// fewer class of memory bug.
//
// The source's RuleOperand enum merges plain comparisons with RPN stack
// operators in one numeric space (and separately bumps its RuleSetting
// tags by 100 to keep them from colliding with RuleAttrib — a sign the
// two were never really one type). Relation and DriverKind below are
// kept as two clearly separated sum types instead.
package rules

import "github.com/probechain/go-rulectl/internal/network"

// PremiseKind is And or Or — how a premise composes with the ones
// before it in its rule's IF block.
type PremiseKind int

const (
	PremiseAnd PremiseKind = iota
	PremiseOr
)

// CmpOp is a plain value comparison.
type CmpOp int

const (
	CmpEQ CmpOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// StackOp is an RPN stack operator.
type StackOp int

const (
	StkEnter StackOp = iota
	StkPop
	StkAdd
	StkSub
	StkMul
	StkDiv
	StkPow
	StkInv
	StkNeg
	StkSwap
	StkLog10
	StkLn
	StkExp
	StkSqrt
	StkSin
	StkCos
	StkTan
	StkAsin
	StkAcos
	StkAtan
	StkEq
	StkNe
	StkGt
	StkGe
	StkLt
	StkLe
	StkBack
)

// RelationKind distinguishes the two Relation variants.
type RelationKind int

const (
	RelationCmp RelationKind = iota
	RelationStack
)

// Relation is the tagged union of comparisons and RPN operators
// spec.md §3 describes. A premise with a RelationStack executes a
// stack side effect instead of producing a pure boolean (§4.5).
type Relation struct {
	Kind RelationKind
	Cmp  CmpOp
	Stk  StackOp
}

// Premise is one clause of a rule's IF block.
type Premise struct {
	Kind           PremiseKind
	LHS            network.Ref
	RHS            network.Ref
	HasRHS         bool // true when the RHS was a variable reference, not a literal
	Relation       Relation
	ImmediateValue float64
}

// ActionAttr is the attribute an action writes. PID variants are
// distinct tags (not a separate driver) so the per-step updater
// dispatches to the right control law directly from the attribute.
type ActionAttr int

const (
	ActionStatus ActionAttr = iota
	ActionSetting
	ActionPID
	ActionPID2
	ActionPID3
)

// DriverKind identifies what computes an ActionSetting/ActionStatus
// action's value when it isn't one of the PID laws.
type DriverKind int

const (
	DriverLiteral DriverKind = iota
	DriverCurve
	DriverTimeSeries
	DriverStack
)

// PIDCoeffs are the proportional/integral/derivative gains authored on
// a PID/PID2/PID3 action clause.
type PIDCoeffs struct {
	Kp, Ki, Kd float64
}

// PIDErrors is the rolling error history a PID action clause carries
// across simulation steps. It is owned by the Action so each authored
// PID clause keeps its own independent history.
type PIDErrors struct {
	E1, E2, E3 float64
}

// Action is one clause of a rule's THEN or ELSE block.
type Action struct {
	RuleIndex int
	Link      network.Ref
	Attribute ActionAttr

	Driver          DriverKind
	CurveIndex      int
	TimeSeriesIndex int
	DirectValue     float64

	PID    PIDCoeffs
	Errors *PIDErrors
}

// Rule is a compiled control rule: its premises and the two action
// lists its THEN/ELSE branches fire.
type Rule struct {
	ID          string
	Priority    float64
	Premises    []Premise
	ThenActions []Action
	ElseActions []Action
}
