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

package rules

import (
	"testing"

	"github.com/probechain/go-rulectl/internal/ctlerr"
	"github.com/probechain/go-rulectl/internal/network"
)

type fakeResolver struct {
	objects     map[string]int
	curves      map[string]int
	timeSeries  map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		objects:    map[string]int{"N1": 0, "N2": 1, "C1": 0, "P1": 0, "OR1": 0},
		curves:     map[string]int{"PUMP1": 0},
		timeSeries: map[string]int{"INFLOW1": 0},
	}
}

func (f *fakeResolver) FindObject(kind network.ObjectKind, name string) (int, bool) {
	idx, ok := f.objects[name]
	return idx, ok
}
func (f *fakeResolver) FindCurve(name string) (int, bool) {
	idx, ok := f.curves[name]
	return idx, ok
}
func (f *fakeResolver) FindTimeSeries(name string) (int, bool) {
	idx, ok := f.timeSeries[name]
	return idx, ok
}

func newTestCompiler() *Compiler {
	return NewCompiler(2, newFakeResolver(), network.DefaultClock{}, nil)
}

func TestCompileSimpleDepthRule(t *testing.T) {
	c := newTestCompiler()
	if err := c.AddRuleClause(0, "RULE", []string{"R1"}); err != nil {
		t.Fatalf("RULE: %v", err)
	}
	if err := c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "5.0"}); err != nil {
		t.Fatalf("IF: %v", err)
	}
	if err := c.AddRuleClause(0, "THEN", []string{"PUMP", "P1", "STATUS", "=", "ON"}); err != nil {
		t.Fatalf("THEN: %v", err)
	}
	if err := c.AddRuleClause(0, "PRIORITY", []string{"3"}); err != nil {
		t.Fatalf("PRIORITY: %v", err)
	}

	r := c.Rules()[0]
	if r.ID != "R1" || r.Priority != 3 {
		t.Fatalf("rule = %+v", r)
	}
	if len(r.Premises) != 1 || r.Premises[0].ImmediateValue != 5.0 {
		t.Fatalf("premises = %+v", r.Premises)
	}
	if len(r.ThenActions) != 1 || r.ThenActions[0].DirectValue != 1 {
		t.Fatalf("then actions = %+v", r.ThenActions)
	}
}

func TestRuleOutOfStatePriorityFirst(t *testing.T) {
	c := newTestCompiler()
	err := c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	var stateErr *ctlerr.StateError
	if err == nil {
		t.Fatalf("expected StateError, got nil")
	}
	if se, ok := err.(*ctlerr.StateError); !ok {
		t.Fatalf("expected *ctlerr.StateError, got %T (%v)", err, err)
	} else {
		stateErr = se
	}
	_ = stateErr
}

func TestElseBeforeThenIsStateError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	err := c.AddRuleClause(0, "ELSE", []string{"PUMP", "P1", "STATUS", "=", "OFF"})
	if _, ok := err.(*ctlerr.StateError); !ok {
		t.Fatalf("expected *ctlerr.StateError, got %T (%v)", err, err)
	}
}

func TestPriorityRequiredBetweenRules(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	c.AddRuleClause(0, "THEN", []string{"PUMP", "P1", "STATUS", "=", "ON"})
	// No PRIORITY clause: state is still Then, so a second RULE must fail.
	err := c.AddRuleClause(1, "RULE", []string{"R2"})
	if _, ok := err.(*ctlerr.StateError); !ok {
		t.Fatalf("expected *ctlerr.StateError, got %T (%v)", err, err)
	}
}

func TestUnknownAttributeForKindIsSemanticError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "IF", []string{"NODE", "N1", "SETTING", ">", "1"})
	if _, ok := err.(*ctlerr.SemanticError); !ok {
		t.Fatalf("expected *ctlerr.SemanticError, got %T (%v)", err, err)
	}
}

func TestUnknownObjectNameIsParseError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "IF", []string{"NODE", "NOPE", "DEPTH", ">", "1"})
	pe, ok := err.(*ctlerr.ParseError)
	if !ok {
		t.Fatalf("expected *ctlerr.ParseError, got %T (%v)", err, err)
	}
	if pe.Code != ctlerr.ErrName {
		t.Fatalf("code = %v, want ErrName", pe.Code)
	}
}

func TestRHSVariableReference(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "NODE", "N2", "DEPTH"})
	if err != nil {
		t.Fatalf("IF: %v", err)
	}
	p := c.Rules()[0].Premises[0]
	if !p.HasRHS || p.RHS.Index != 1 {
		t.Fatalf("premise = %+v", p)
	}
}

func TestDontCareRHS(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "---"})
	if err != nil {
		t.Fatalf("IF: %v", err)
	}
	p := c.Rules()[0].Premises[0]
	if p.HasRHS || p.ImmediateValue != 0 {
		t.Fatalf("premise = %+v", p)
	}
}

func TestStackEnterAndBackPremises(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	if err := c.AddRuleClause(0, "IF", []string{"STACK", "OP", "[ENTER]", "2.0"}); err != nil {
		t.Fatalf("ENTER: %v", err)
	}
	if err := c.AddRuleClause(0, "AND", []string{"NODE", "N1", "DEPTH", "[BACK]", "300"}); err != nil {
		t.Fatalf("BACK: %v", err)
	}
	rule := c.Rules()[0]
	if rule.Premises[0].Relation.Stk != StkEnter || rule.Premises[0].ImmediateValue != 2.0 {
		t.Fatalf("enter premise = %+v", rule.Premises[0])
	}
	if rule.Premises[1].Relation.Stk != StkBack || rule.Premises[1].ImmediateValue != 300 {
		t.Fatalf("back premise = %+v", rule.Premises[1])
	}
}

func TestBackOnClockTimeIsSemanticError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "IF", []string{"SIMULATION", "CLOCKTIME", "[BACK]", "300"})
	if _, ok := err.(*ctlerr.SemanticError); !ok {
		t.Fatalf("expected *ctlerr.SemanticError, got %T (%v)", err, err)
	}
}

func TestActionCurveDriver(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	if err := c.AddRuleClause(0, "THEN", []string{"PUMP", "P1", "SETTING", "=", "CURVE", "PUMP1"}); err != nil {
		t.Fatalf("THEN: %v", err)
	}
	a := c.Rules()[0].ThenActions[0]
	if a.Driver != DriverCurve || a.CurveIndex != 0 {
		t.Fatalf("action = %+v", a)
	}
}

func TestActionPIDDriver(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	if err := c.AddRuleClause(0, "THEN", []string{"ORIFICE", "OR1", "SETTING", "=", "PID", "0.5", "0.1", "0.0"}); err != nil {
		t.Fatalf("THEN: %v", err)
	}
	a := c.Rules()[0].ThenActions[0]
	if a.Attribute != ActionPID || a.PID.Kp != 0.5 || a.Errors == nil {
		t.Fatalf("action = %+v", a)
	}
}

func TestConduitSettingActionIsSemanticError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	err := c.AddRuleClause(0, "THEN", []string{"CONDUIT", "C1", "SETTING", "=", "0.5"})
	if _, ok := err.(*ctlerr.SemanticError); !ok {
		t.Fatalf("expected *ctlerr.SemanticError, got %T (%v)", err, err)
	}
}

func TestSettingLiteralOutOfRangeForNonPumpIsSemanticError(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	err := c.AddRuleClause(0, "THEN", []string{"ORIFICE", "OR1", "SETTING", "=", "1.5"})
	if _, ok := err.(*ctlerr.SemanticError); !ok {
		t.Fatalf("expected *ctlerr.SemanticError, got %T (%v)", err, err)
	}
}

func TestOrPremiseRequiresIfState(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	err := c.AddRuleClause(0, "OR", []string{"NODE", "N1", "DEPTH", ">", "1"})
	if _, ok := err.(*ctlerr.StateError); !ok {
		t.Fatalf("expected *ctlerr.StateError, got %T (%v)", err, err)
	}
}

func TestMultipleAndPremisesAccumulate(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	c.AddRuleClause(0, "AND", []string{"NODE", "N2", "DEPTH", "<", "3"})
	if len(c.Rules()[0].Premises) != 2 {
		t.Fatalf("premises = %+v", c.Rules()[0].Premises)
	}
	if c.Rules()[0].Premises[1].Kind != PremiseAnd {
		t.Fatalf("second premise kind = %v, want PremiseAnd", c.Rules()[0].Premises[1].Kind)
	}
}

func TestAndInThenAppendsAction(t *testing.T) {
	c := newTestCompiler()
	c.AddRuleClause(0, "RULE", []string{"R1"})
	c.AddRuleClause(0, "IF", []string{"NODE", "N1", "DEPTH", ">", "1"})
	c.AddRuleClause(0, "THEN", []string{"PUMP", "P1", "STATUS", "=", "ON"})
	if err := c.AddRuleClause(0, "AND", []string{"ORIFICE", "OR1", "SETTING", "=", "0.5"}); err != nil {
		t.Fatalf("AND: %v", err)
	}
	if len(c.Rules()[0].ThenActions) != 2 {
		t.Fatalf("then actions = %+v", c.Rules()[0].ThenActions)
	}
}

func TestRuleIndexOutOfRangeIsResourceError(t *testing.T) {
	c := newTestCompiler()
	err := c.AddRuleClause(5, "RULE", []string{"R1"})
	if _, ok := err.(*ctlerr.ResourceError); !ok {
		t.Fatalf("expected *ctlerr.ResourceError, got %T (%v)", err, err)
	}
}
