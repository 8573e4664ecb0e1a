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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probechain/go-rulectl/internal/ctlconfig"
	"github.com/probechain/go-rulectl/internal/history"
	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/rules"
)

func testNetwork() *network.Network {
	return &network.Network{
		Nodes: []network.NodeState{{NewDepth: 5.0}},
		Links: []network.LinkState{
			{Kind: network.KindPump, Setting: 0},
			{Kind: network.KindOrifice, Setting: 0},
			{Kind: network.KindWeir, Setting: 0.3},
		},
		Units: network.DefaultUnitSystem(),
	}
}

func newDriver(net *network.Network) *Driver {
	resolver := network.NewResolver(net, network.DefaultClock{})
	ctx := &network.Context{ReportStep: 60, TStep: 1.0 / 1440.0}
	e := New(resolver, nil, ctx, ctlconfig.Default(), nil)
	return NewDriver(e, nil, nil, nil)
}

// Scenario 1: simple threshold.
func TestSimpleThresholdFiresThen(t *testing.T) {
	net := testNetwork()
	d := newDriver(net)
	rule := rules.Rule{
		ID:       "R1",
		Priority: 5,
		Premises: []rules.Premise{
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindNode, Index: 0, HasIndex: true, Attribute: network.AttrDepth}, Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGT}, ImmediateValue: 4.5},
		},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 1},
		},
		ElseActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 0},
		},
	}
	events := d.Step([]rules.Rule{rule})
	require.Len(t, events, 1)
	require.Equal(t, 1.0, net.Links[0].Setting)
}

// Scenario 2: priority conflict.
func TestPriorityConflictKeepsHigherPriority(t *testing.T) {
	net := testNetwork()
	d := newDriver(net)
	always := rules.Premise{
		Kind: rules.PremiseAnd,
		LHS:  network.Ref{Kind: network.KindNode, Index: 0, HasIndex: true, Attribute: network.AttrDepth},
		Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGE},
		ImmediateValue: 0,
	}
	ruleA := rules.Rule{
		ID: "A", Priority: 1,
		Premises: []rules.Premise{always},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindWeir, Index: 2, HasIndex: true}, Attribute: rules.ActionSetting, Driver: rules.DriverLiteral, DirectValue: 0.3},
		},
	}
	ruleB := rules.Rule{
		ID: "B", Priority: 10,
		Premises: []rules.Premise{always},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindWeir, Index: 2, HasIndex: true}, Attribute: rules.ActionSetting, Driver: rules.DriverLiteral, DirectValue: 0.8},
		},
	}
	d.Step([]rules.Rule{ruleA, ruleB})
	if net.Links[2].Setting != 0.8 {
		t.Fatalf("links[2].Setting = %v, want 0.8", net.Links[2].Setting)
	}
}

// Scenario 3: RPN stack computation carried into an action.
func TestStackComputationDrivesAction(t *testing.T) {
	net := testNetwork()
	d := newDriver(net)
	rule := rules.Rule{
		ID: "R3",
		Premises: []rules.Premise{
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackOp}, Relation: rules.Relation{Kind: rules.RelationStack, Stk: rules.StkEnter}, ImmediateValue: 2.0},
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackOp}, Relation: rules.Relation{Kind: rules.RelationStack, Stk: rules.StkEnter}, ImmediateValue: 3.0},
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackOp}, Relation: rules.Relation{Kind: rules.RelationStack, Stk: rules.StkAdd}},
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackResult}, Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGT}, ImmediateValue: 4.0},
		},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindOrifice, Index: 1, HasIndex: true}, Attribute: rules.ActionSetting, Driver: rules.DriverStack},
		},
	}
	d.Step([]rules.Rule{rule})
	if net.Links[1].Setting != 5.0 {
		t.Fatalf("links[1].Setting = %v, want 5.0", net.Links[1].Setting)
	}
}

type backStore struct{ depth map[int]float64 }

func (b *backStore) Nperiods() int       { return 10 }
func (b *backStore) ReportStep() float64 { return 60 }
func (b *backStore) NodeDepth(index, period int) (float64, bool) {
	v, ok := b.depth[period]
	return v, ok
}
func (b *backStore) NodeHead(index, period int) (float64, bool)   { return 0, false }
func (b *backStore) NodeInflow(index, period int) (float64, bool) { return 0, false }
func (b *backStore) LinkFlow(index, period int) (float64, bool)   { return 0, false }
func (b *backStore) LinkDepth(index, period int) (float64, bool)  { return 0, false }

// Scenario 4: BACK query.
func TestBackQueryFiresRule(t *testing.T) {
	net := testNetwork()
	resolver := network.NewResolver(net, network.DefaultClock{})
	store := &backStore{depth: map[int]float64{4: 2.5}} // Nperiods(10) - offset(5) - 1 = 4
	reader, err := history.NewReader(store, 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	ctx := &network.Context{ReportStep: 60, TStep: 1.0 / 1440.0}
	e := New(resolver, reader, ctx, ctlconfig.Default(), nil)
	d := NewDriver(e, nil, nil, nil)

	rule := rules.Rule{
		ID: "R4",
		Premises: []rules.Premise{
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindNode, Index: 0, HasIndex: true, Attribute: network.AttrDepth}, Relation: rules.Relation{Kind: rules.RelationStack, Stk: rules.StkBack}, ImmediateValue: 300},
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackResult}, Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGT}, ImmediateValue: 2.0},
		},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 1},
		},
	}
	events := d.Step([]rules.Rule{rule})
	require.Len(t, events, 1)
	require.Equal(t, 1.0, net.Links[0].Setting)
}

// Scenario 6: short-circuit — the second AND premise must not execute
// when the first already failed. Observed via a stack push that would
// only happen if the second premise ran.
func TestAndShortCircuitSkipsLaterPremises(t *testing.T) {
	net := testNetwork()
	d := newDriver(net)
	rule := rules.Rule{
		ID: "R6",
		Premises: []rules.Premise{
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindNode, Index: 0, HasIndex: true, Attribute: network.AttrDepth}, Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGT}, ImmediateValue: 100},
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindStack, Attribute: network.AttrStackOp}, Relation: rules.Relation{Kind: rules.RelationStack, Stk: rules.StkEnter}, ImmediateValue: 99},
		},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 1},
		},
		ElseActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 0},
		},
	}
	d.Step([]rules.Rule{rule})
	if d.Eval.Stack.Depth() != 0 {
		t.Fatalf("stack depth = %d, want 0 (second premise must not run)", d.Eval.Stack.Depth())
	}
	if net.Links[0].Setting != 0 {
		t.Fatalf("links[0].Setting = %v, want 0 (ELSE branch)", net.Links[0].Setting)
	}
}

func TestIdempotentReapplyEmitsNoNewEvents(t *testing.T) {
	net := testNetwork()
	d := newDriver(net)
	rule := rules.Rule{
		ID: "R1",
		Premises: []rules.Premise{
			{Kind: rules.PremiseAnd, LHS: network.Ref{Kind: network.KindNode, Index: 0, HasIndex: true, Attribute: network.AttrDepth}, Relation: rules.Relation{Kind: rules.RelationCmp, Cmp: rules.CmpGT}, ImmediateValue: 4.5},
		},
		ThenActions: []rules.Action{
			{Link: network.Ref{Kind: network.KindPump, Index: 0, HasIndex: true}, Attribute: rules.ActionStatus, Driver: rules.DriverLiteral, DirectValue: 1},
		},
	}
	first := d.Step([]rules.Rule{rule})
	second := d.Step([]rules.Rule{rule})
	require.Len(t, first, 1, "first step should commit one action")
	require.Len(t, second, 0, "second step should be a no-op (setting unchanged)")
}
