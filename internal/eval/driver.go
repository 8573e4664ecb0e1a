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

package eval

import (
	"github.com/google/uuid"

	"github.com/probechain/go-rulectl/internal/arbiter"
	"github.com/probechain/go-rulectl/internal/modulate"
	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/pid"
	"github.com/probechain/go-rulectl/internal/rlog"
	"github.com/probechain/go-rulectl/internal/rules"
)

// ActionEvent reports a committed setting change: the control-action
// report event spec.md §4.6 step 3 describes.
type ActionEvent struct {
	EventID   uuid.UUID
	RuleIndex int
	LinkIndex int
	OldValue  float64
	NewValue  float64
}

// Driver is the per-step rule evaluator (C6): it walks the compiled
// rule table, fires THEN or ELSE branches, and commits the arbiter's
// surviving candidates to network state.
type Driver struct {
	Eval    *Evaluator
	Arbiter *arbiter.Arbiter
	Curves  modulate.CurveSource
	Series  modulate.TimeSeriesSource
	Log     rlog.Logger
}

// NewDriver wires an Evaluator to an Arbiter and the curve/time-series
// collaborators modulated actions read from. Curves and series may be
// nil if the rule set never drives a CURVE/TIMESERIES action.
func NewDriver(e *Evaluator, curves modulate.CurveSource, series modulate.TimeSeriesSource, log rlog.Logger) *Driver {
	if log == nil {
		log = rlog.New("module", "eval")
	}
	return &Driver{Eval: e, Arbiter: arbiter.New(), Curves: curves, Series: series, Log: log}
}

// Step evaluates every rule once (spec.md §4.6) and commits the
// surviving candidate actions, returning the committed events. The
// stack is process-wide across rules within the step by design: stack
// side effects from rule k are visible to rule k+1.
func (d *Driver) Step(rs []rules.Rule) []ActionEvent {
	d.Arbiter.Reset()
	d.Eval.Stack.Clear()

	for ruleIdx := range rs {
		rule := &rs[ruleIdx]
		if d.fires(rule) {
			d.submitActions(ruleIdx, rule, rule.ThenActions)
		} else {
			d.submitActions(ruleIdx, rule, rule.ElseActions)
		}
	}

	return d.commit()
}

// fires walks a rule's premises with AND/OR short-circuit semantics.
// AND (including the initial IF clause) short-circuits the remaining
// premises once result is FALSE — stack side effects in the
// short-circuited premises do not run, preserving the source's
// behavior (spec.md §9 open question).
func (d *Driver) fires(rule *rules.Rule) bool {
	result := true
premises:
	for _, premise := range rule.Premises {
		switch premise.Kind {
		case rules.PremiseOr:
			if !result {
				result = d.Eval.EvaluatePremise(premise)
			}
		case rules.PremiseAnd:
			if !result {
				break premises
			}
			result = d.Eval.EvaluatePremise(premise)
		}
	}
	return result
}

func (d *Driver) submitActions(ruleIdx int, rule *rules.Rule, actions []rules.Action) {
	for _, action := range actions {
		value, ok := d.computeActionValue(action)
		if !ok {
			continue
		}
		d.Arbiter.Submit(arbiter.Candidate{
			LinkIndex: action.Link.Index,
			RuleIndex: ruleIdx,
			Priority:  rule.Priority,
			Value:     value,
			Attribute: action.Attribute,
		})
	}
}

func (d *Driver) computeActionValue(action rules.Action) (float64, bool) {
	switch action.Attribute {
	case rules.ActionStatus:
		return action.DirectValue, true

	case rules.ActionPID, rules.ActionPID2, rules.ActionPID3:
		if action.Link.Index < 0 || action.Link.Index >= len(d.Eval.Resolver.Net.Links) {
			return 0, false
		}
		current := d.Eval.Resolver.Net.Links[action.Link.Index].Setting
		isPump := action.Link.Kind == network.KindPump
		v := pid.Update(pidVariant(action.Attribute), action.PID, action.Errors,
			d.Eval.Ctx.SetPoint, d.Eval.Ctx.ControlValue, current, d.Eval.Ctx.TStep,
			d.Eval.Cfg.Tiny, d.Eval.Cfg.StuckThreshold, isPump)
		return v, true

	case rules.ActionSetting:
		switch action.Driver {
		case rules.DriverLiteral:
			return action.DirectValue, true
		case rules.DriverCurve:
			return modulate.Curve(d.Curves, action.CurveIndex, d.Eval.Ctx.ControlValue)
		case rules.DriverTimeSeries:
			return modulate.TimeSeries(d.Series, action.TimeSeriesIndex, d.Eval.Ctx.ElapsedTime)
		case rules.DriverStack:
			return modulate.StackTop(d.Eval.Stack), true
		}
	}
	return 0, false
}

func pidVariant(a rules.ActionAttr) pid.Variant {
	switch a {
	case rules.ActionPID2:
		return pid.Variant2
	case rules.ActionPID3:
		return pid.Variant3
	default:
		return pid.Classic
	}
}

// commit writes every surviving candidate whose value differs from the
// link's current setting and returns the resulting events (spec.md
// §4.6 step 3).
func (d *Driver) commit() []ActionEvent {
	var events []ActionEvent
	for _, c := range d.Arbiter.Candidates() {
		if c.LinkIndex < 0 || c.LinkIndex >= len(d.Eval.Resolver.Net.Links) {
			continue
		}
		link := &d.Eval.Resolver.Net.Links[c.LinkIndex]
		if link.Setting == c.Value {
			continue
		}
		old := link.Setting
		link.Setting = c.Value
		link.TimeLastSet = d.Eval.Ctx.Date + d.Eval.Ctx.ClockTime
		events = append(events, ActionEvent{
			EventID:   c.EventID,
			RuleIndex: c.RuleIndex,
			LinkIndex: c.LinkIndex,
			OldValue:  old,
			NewValue:  c.Value,
		})
		d.Log.Info("committed control action", "link", c.LinkIndex, "rule", c.RuleIndex, "old", old, "new", c.Value)
	}
	return events
}
