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

// Package eval implements the premise evaluator (C5) and the per-step
// rule driver (C6): they turn a compiled Rule into stack side effects,
// a boolean firing decision, and candidate actions for the arbiter.
package eval

import (
	"math"

	"github.com/probechain/go-rulectl/internal/ctlconfig"
	"github.com/probechain/go-rulectl/internal/history"
	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/rlog"
	"github.com/probechain/go-rulectl/internal/rules"
	"github.com/probechain/go-rulectl/internal/stack"
)

// Evaluator carries the shared mutable state one premise evaluation
// reads and writes: the RPN stack, the live network resolver, the
// history reader for BACK, and the per-step context (SetPoint /
// ControlValue are overwritten by every plain comparison premise).
type Evaluator struct {
	Stack    *stack.Stack
	Resolver *network.Resolver
	History  *history.Reader
	Ctx      *network.Context
	Cfg      ctlconfig.Config
	Log      rlog.Logger
}

// New builds an Evaluator with a fresh stack.
func New(resolver *network.Resolver, hist *history.Reader, ctx *network.Context, cfg ctlconfig.Config, log rlog.Logger) *Evaluator {
	if log == nil {
		log = rlog.New("module", "eval")
	}
	return &Evaluator{
		Stack:    stack.NewWithConfig(cfg.StackDepth, cfg.Epsilon),
		Resolver: resolver,
		History:  hist,
		Ctx:      ctx,
		Cfg:      cfg,
		Log:      log,
	}
}

// EvaluatePremise runs one premise (spec.md §4.5) and reports whether
// it holds. RPN-operator premises mutate the stack as a side effect.
func (e *Evaluator) EvaluatePremise(p rules.Premise) bool {
	switch p.LHS.Attribute {
	case network.AttrStackResult:
		return e.evalAgainstStack(p)
	case network.AttrStackOp:
		if p.Relation.Kind == rules.RelationStack && p.Relation.Stk == rules.StkEnter {
			e.Stack.Push(p.ImmediateValue)
			return true
		}
		return e.evalAgainstStack(p)
	}

	lhsValue, lhsOK := e.Resolver.Resolve(p.LHS, e.Ctx)
	rhsValue, rhsOK := e.rhsValue(p)
	if !lhsOK || !rhsOK {
		return false
	}

	if p.Relation.Kind == rules.RelationStack {
		switch p.Relation.Stk {
		case rules.StkEnter:
			e.Stack.Push(lhsValue)
			return true
		case rules.StkBack:
			return e.evaluateBack(p)
		default:
			return e.applyStackOp(p)
		}
	}

	e.Ctx.SetPoint = rhsValue
	e.Ctx.ControlValue = lhsValue

	if isTimeWindowed(p.LHS.Attribute) {
		return e.compareTimeWindowed(p.Relation.Cmp, lhsValue, rhsValue)
	}
	return compare(p.Relation.Cmp, lhsValue, rhsValue, e.Cfg.Epsilon)
}

// rhsValue resolves a premise's RHS: either the variable reference, or
// the compiled immediate value when no RHS reference was authored.
func (e *Evaluator) rhsValue(p rules.Premise) (float64, bool) {
	if !p.HasRHS {
		return p.ImmediateValue, true
	}
	return e.Resolver.Resolve(p.RHS, e.Ctx)
}

// evalAgainstStack handles the two stack pseudo-attributes
// (StackResult, StackOp-not-Enter): an RPN relation mutates the stack,
// a plain comparison compares peek() against the immediate value.
func (e *Evaluator) evalAgainstStack(p rules.Premise) bool {
	if p.Relation.Kind == rules.RelationStack {
		return e.applyStackOp(p)
	}
	return compare(p.Relation.Cmp, e.Stack.Peek(), p.ImmediateValue, e.Cfg.Epsilon)
}

// applyStackOp dispatches an RPN relation to the underlying stack
// primitive.
func (e *Evaluator) applyStackOp(p rules.Premise) bool {
	switch p.Relation.Stk {
	case rules.StkEnter:
		e.Stack.Push(p.ImmediateValue)
		return true
	case rules.StkPop:
		return e.Stack.DiscardTop()
	case rules.StkAdd:
		return e.Stack.Add()
	case rules.StkSub:
		return e.Stack.Sub()
	case rules.StkMul:
		return e.Stack.Mul()
	case rules.StkDiv:
		return e.Stack.Div()
	case rules.StkPow:
		return e.Stack.Pow()
	case rules.StkInv:
		return e.Stack.Inv()
	case rules.StkNeg:
		return e.Stack.Neg()
	case rules.StkSwap:
		return e.Stack.Swap()
	case rules.StkLog10:
		return e.Stack.Log10()
	case rules.StkLn:
		return e.Stack.Ln()
	case rules.StkExp:
		return e.Stack.Exp()
	case rules.StkSqrt:
		return e.Stack.Sqrt()
	case rules.StkSin:
		return e.Stack.Sin()
	case rules.StkCos:
		return e.Stack.Cos()
	case rules.StkTan:
		return e.Stack.Tan()
	case rules.StkAsin:
		return e.Stack.Asin()
	case rules.StkAcos:
		return e.Stack.Acos()
	case rules.StkAtan:
		return e.Stack.Atan()
	case rules.StkEq:
		return e.Stack.StkEq()
	case rules.StkNe:
		return e.Stack.StkNe()
	case rules.StkGt:
		return e.Stack.StkGt()
	case rules.StkGe:
		return e.Stack.StkGe()
	case rules.StkLt:
		return e.Stack.StkLt()
	case rules.StkLe:
		return e.Stack.StkLe()
	default:
		// StkBack has no meaning against the stack pseudo-attribute
		// itself; it is only valid on a real Node/Link attribute.
		return false
	}
}

// evaluateBack implements the BACK operator on a Node/Link attribute
// (spec.md §4.5 step 5): the immediate value is seconds, converted to a
// report-period offset, and the historical reading is pushed on
// success.
func (e *Evaluator) evaluateBack(p rules.Premise) bool {
	kind, ok := toHistoryKind(p.LHS.Kind)
	if !ok {
		return false
	}
	offset := history.StepOffset(p.ImmediateValue, e.Ctx.ReportStep)
	if offset < 0 {
		return false
	}
	v, ok := e.History.Read(kind, p.LHS.Index, p.LHS.Attribute, offset)
	if !ok {
		return false
	}
	e.Stack.Push(v)
	return true
}

func toHistoryKind(k network.ObjectKind) (history.ObjectKind, bool) {
	if k == network.KindNode {
		return history.KindNode, true
	}
	if k.IsLinkFamily() {
		return history.KindLink, true
	}
	return 0, false
}

func isTimeWindowed(a network.Attribute) bool {
	switch a {
	case network.AttrTime, network.AttrClockTime, network.AttrTimeOpen, network.AttrTimeClosed:
		return true
	}
	return false
}

// compareTimeWindowed implements the time-windowed comparator (§4.5
// step 6): EQ is true iff lhsValue falls in [rhsValue-tStep/2,
// rhsValue+tStep/2); NE is its complement; every other comparator falls
// through to the plain comparator.
func (e *Evaluator) compareTimeWindowed(cmp rules.CmpOp, lhsValue, rhsValue float64) bool {
	half := e.Ctx.TStep / 2
	inWindow := lhsValue >= rhsValue-half && lhsValue < rhsValue+half
	switch cmp {
	case rules.CmpEQ:
		return inWindow
	case rules.CmpNE:
		return !inWindow
	default:
		return compare(cmp, lhsValue, rhsValue, e.Cfg.Epsilon)
	}
}

func compare(op rules.CmpOp, lhs, rhs, eps float64) bool {
	switch op {
	case rules.CmpEQ:
		return math.Abs(lhs-rhs) <= eps
	case rules.CmpNE:
		return math.Abs(lhs-rhs) > eps
	case rules.CmpLT:
		return lhs < rhs
	case rules.CmpLE:
		return lhs <= rhs
	case rules.CmpGT:
		return lhs > rhs
	case rules.CmpGE:
		return lhs >= rhs
	default:
		return false
	}
}
