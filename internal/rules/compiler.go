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
	"strconv"

	"github.com/probechain/go-rulectl/internal/ctlerr"
	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/rlog"
)

// InputState is the clause-interpreter FSM state (spec.md §4.4).
type InputState int

const (
	StateRule InputState = iota
	StateIf
	StateThen
	StateElse
	StatePriority
)

func (s InputState) String() string {
	switch s {
	case StateRule:
		return "Rule"
	case StateIf:
		return "If"
	case StateThen:
		return "Then"
	case StateElse:
		return "Else"
	case StatePriority:
		return "Priority"
	default:
		return "Unknown"
	}
}

// Compiler compiles a fixed-size array of rules one clause at a time,
// mirroring the host contract controls_addRuleClause(r, keyword,
// tokens, ntoks). It is not safe for concurrent use — clauses for a
// given project always arrive from a single loader goroutine.
type Compiler struct {
	rules    []Rule
	state    InputState
	current  int
	resolver network.SymbolResolver
	clock    network.Clock
	log      rlog.Logger
}

// NewCompiler allocates n empty rule slots (controls_create(n)).
func NewCompiler(n int, resolver network.SymbolResolver, clock network.Clock, log rlog.Logger) *Compiler {
	if clock == nil {
		clock = network.DefaultClock{}
	}
	if log == nil {
		log = rlog.New("module", "rules")
	}
	return &Compiler{
		rules:    make([]Rule, n),
		state:    StatePriority,
		resolver: resolver,
		clock:    clock,
		log:      log,
	}
}

// Rules returns the compiled rule table. Only meaningful once every
// clause has been submitted.
func (c *Compiler) Rules() []Rule { return c.rules }

// AddRuleClause parses one tokenized clause belonging to rule r and
// folds it into the rule table, advancing the FSM.
func (c *Compiler) AddRuleClause(r int, keyword string, tokens []string) error {
	if r < 0 || r >= len(c.rules) {
		return ctlerr.NewResourceError("rule index %d out of range [0,%d)", r, len(c.rules))
	}
	kw := upper(keyword)
	switch kw {
	case "RULE":
		if c.state != StatePriority {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		if len(tokens) < 1 {
			return ctlerr.NewParseError(ctlerr.ErrItems, kw, "RULE requires an id token")
		}
		c.rules[r] = Rule{ID: tokens[0]}
		c.current = r
		c.state = StateRule
		return nil

	case "IF":
		if c.state != StateRule {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		if err := c.addPremise(PremiseAnd, tokens); err != nil {
			return err
		}
		c.state = StateIf
		return nil

	case "AND":
		switch c.state {
		case StateIf:
			return c.addPremise(PremiseAnd, tokens)
		case StateThen:
			return c.addAction(&c.rules[c.current].ThenActions, tokens)
		case StateElse:
			return c.addAction(&c.rules[c.current].ElseActions, tokens)
		default:
			return ctlerr.NewStateError(kw, c.state.String())
		}

	case "OR":
		if c.state != StateIf {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		return c.addPremise(PremiseOr, tokens)

	case "THEN":
		if c.state != StateIf {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		c.state = StateThen
		return c.addAction(&c.rules[c.current].ThenActions, tokens)

	case "ELSE":
		if c.state != StateThen {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		c.state = StateElse
		return c.addAction(&c.rules[c.current].ElseActions, tokens)

	case "PRIORITY":
		if c.state != StateThen && c.state != StateElse {
			return ctlerr.NewStateError(kw, c.state.String())
		}
		if len(tokens) < 1 {
			return ctlerr.NewParseError(ctlerr.ErrItems, kw, "PRIORITY requires a number")
		}
		p, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return ctlerr.NewParseError(ctlerr.ErrNumber, tokens[0], "bad priority value")
		}
		c.rules[c.current].Priority = p
		c.state = StatePriority
		return nil

	default:
		return ctlerr.NewParseError(ctlerr.ErrKeyword, keyword, "unknown clause keyword")
	}
}

// ---- Premise parsing -------------------------------------------------

func (c *Compiler) addPremise(kind PremiseKind, tokens []string) error {
	if len(tokens) < 1 {
		return ctlerr.NewParseError(ctlerr.ErrItems, "", "premise clause has too few tokens")
	}
	objKind, ok := lookupObject(tokens[0])
	if !ok {
		return ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[0], "unknown object kind")
	}

	idx := 1
	var name string
	if objKind.HasName() {
		if idx >= len(tokens) {
			return ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "missing object name")
		}
		name = tokens[idx]
		idx++
	}

	if idx >= len(tokens) {
		return ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "missing attribute")
	}
	attr, ok := lookupAttribute(tokens[idx])
	if !ok {
		return ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[idx], "unknown attribute")
	}
	attrTok := tokens[idx]
	idx++
	if !network.ValidForKind(objKind, attr) {
		return ctlerr.NewSemanticError(ctlerr.ErrKeyword, attrTok, "attribute %s invalid for %s", attr, objKind)
	}

	lhs := network.Ref{Kind: objKind, Attribute: attr}
	if objKind.HasName() {
		index, ok := c.resolver.FindObject(objKind, name)
		if !ok {
			return ctlerr.NewParseError(ctlerr.ErrName, name, "unknown object name")
		}
		lhs.Index = index
		lhs.HasIndex = true
	}

	if idx >= len(tokens) {
		return ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "missing relation")
	}
	relation, ok := lookupRelation(tokens[idx])
	if !ok {
		return ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[idx], "unknown relation")
	}
	relTok := tokens[idx]
	idx++

	if relation.Kind == RelationStack && relation.Stk == StkBack &&
		(attr == network.AttrTime || attr == network.AttrClockTime) {
		return ctlerr.NewSemanticError(ctlerr.ErrKeyword, relTok, "BACK is undefined for TIME/CLOCKTIME")
	}

	immediate, rhs, hasRHS, err := c.parseRHS(attr, relation, tokens[idx:])
	if err != nil {
		return err
	}

	c.rules[c.current].Premises = append(c.rules[c.current].Premises, Premise{
		Kind:           kind,
		LHS:            lhs,
		RHS:            rhs,
		HasRHS:         hasRHS,
		Relation:       relation,
		ImmediateValue: immediate,
	})
	return nil
}

func (c *Compiler) parseRHS(lhsAttr network.Attribute, relation Relation, tokens []string) (float64, network.Ref, bool, error) {
	if len(tokens) == 0 {
		return 0, network.Ref{}, false, nil
	}
	if tokens[0] == dontCare {
		if len(tokens) != 1 {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "extra tokens after ---")
		}
		return 0, network.Ref{}, false, nil
	}

	if relation.Kind == RelationStack {
		// Only [ENTER] and [BACK] carry an operand; every other stack
		// operator acts on values already on the stack.
		if len(tokens) != 1 {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "extra tokens")
		}
		v, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrNumber, tokens[0], "bad numeric literal")
		}
		return v, network.Ref{}, false, nil
	}

	if objKind2, ok := lookupObject(tokens[0]); ok {
		idx := 1
		var name string
		if objKind2.HasName() {
			if idx >= len(tokens) {
				return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "missing RHS object name")
			}
			name = tokens[idx]
			idx++
		}
		if idx >= len(tokens) {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "missing RHS attribute")
		}
		attr2, ok2 := lookupAttribute(tokens[idx])
		if !ok2 {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[idx], "unknown RHS attribute")
		}
		idx++
		if idx != len(tokens) {
			return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[idx], "extra tokens")
		}
		if attr2 != lhsAttr {
			c.log.Warn("RHS attribute does not match LHS attribute", "lhs", lhsAttr.String(), "rhs", attr2.String())
		}
		rhs := network.Ref{Kind: objKind2, Attribute: attr2}
		if objKind2.HasName() {
			index, ok3 := c.resolver.FindObject(objKind2, name)
			if !ok3 {
				return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrName, name, "unknown RHS object name")
			}
			rhs.Index = index
			rhs.HasIndex = true
		}
		return 0, rhs, true, nil
	}

	if len(tokens) != 1 {
		return 0, network.Ref{}, false, ctlerr.NewParseError(ctlerr.ErrItems, tokens[0], "extra tokens")
	}
	v, err := c.parseLiteral(lhsAttr, tokens[0])
	if err != nil {
		return 0, network.Ref{}, false, err
	}
	return v, network.Ref{}, false, nil
}

func (c *Compiler) parseLiteral(attr network.Attribute, tok string) (float64, error) {
	switch attr {
	case network.AttrStatus:
		if v, ok := statusKeywords[upper(tok)]; ok {
			return v, nil
		}
		if v, ok := conduitKeywords[upper(tok)]; ok {
			return v, nil
		}
		return 0, ctlerr.NewParseError(ctlerr.ErrKeyword, tok, "expected OFF/ON or CLOSED/OPEN")

	case network.AttrTime, network.AttrClockTime, network.AttrTimeOpen, network.AttrTimeClosed:
		v, err := c.clock.ParseClockTime(tok)
		if err != nil {
			return 0, ctlerr.NewParseError(ctlerr.ErrDateTime, tok, "%v", err)
		}
		return v, nil

	case network.AttrDate:
		v, err := c.clock.ParseDate(tok)
		if err != nil {
			return 0, ctlerr.NewParseError(ctlerr.ErrDateTime, tok, "%v", err)
		}
		return v, nil

	case network.AttrDay:
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > 7 {
			return 0, ctlerr.NewParseError(ctlerr.ErrNumber, tok, "DAY must be in [1,7]")
		}
		return float64(n), nil

	case network.AttrMonth:
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > 12 {
			return 0, ctlerr.NewParseError(ctlerr.ErrNumber, tok, "MONTH must be in [1,12]")
		}
		return float64(n), nil

	default:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, ctlerr.NewParseError(ctlerr.ErrNumber, tok, "bad numeric literal")
		}
		return v, nil
	}
}

// ---- Action parsing ----------------------------------------------------

func (c *Compiler) addAction(actions *[]Action, tokens []string) error {
	if len(tokens) < 4 {
		return ctlerr.NewParseError(ctlerr.ErrItems, "", "action clause has too few tokens")
	}
	objKind, ok := lookupObject(tokens[0])
	if !ok {
		return ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[0], "unknown object kind")
	}
	if !objKind.IsLinkFamily() || objKind == network.KindLink {
		return ctlerr.NewSemanticError(ctlerr.ErrKeyword, tokens[0],
			"action target must be CONDUIT, PUMP, ORIFICE, WEIR, or OUTLET")
	}

	name := tokens[1]
	index, ok := c.resolver.FindObject(objKind, name)
	if !ok {
		return ctlerr.NewParseError(ctlerr.ErrName, name, "unknown link name")
	}

	attrTok := tokens[2]
	if tokens[3] != "=" {
		return ctlerr.NewParseError(ctlerr.ErrKeyword, tokens[3], "expected '='")
	}
	rest := tokens[4:]

	action := Action{
		RuleIndex: c.current,
		Link:      network.Ref{Kind: objKind, Index: index, HasIndex: true},
	}

	switch upper(attrTok) {
	case "STATUS":
		if objKind != network.KindPump && objKind != network.KindConduit {
			return ctlerr.NewSemanticError(ctlerr.ErrKeyword, attrTok, "STATUS actions require a PUMP or CONDUIT target")
		}
		if len(rest) != 1 {
			return ctlerr.NewParseError(ctlerr.ErrItems, attrTok, "STATUS requires exactly one value token")
		}
		v, ok := statusKeywords[upper(rest[0])]
		if !ok {
			v, ok = conduitKeywords[upper(rest[0])]
		}
		if !ok {
			return ctlerr.NewParseError(ctlerr.ErrKeyword, rest[0], "expected OFF/ON or CLOSED/OPEN")
		}
		action.Attribute = ActionStatus
		action.Driver = DriverLiteral
		action.DirectValue = v

	case "SETTING":
		if objKind == network.KindConduit {
			return ctlerr.NewSemanticError(ctlerr.ErrKeyword, attrTok, "CONDUIT actions must use STATUS, not SETTING")
		}
		if err := c.parseSettingDriver(&action, objKind, rest); err != nil {
			return err
		}

	default:
		return ctlerr.NewParseError(ctlerr.ErrKeyword, attrTok, "action attribute must be STATUS or SETTING")
	}

	*actions = append(*actions, action)
	return nil
}

func (c *Compiler) parseSettingDriver(action *Action, objKind network.ObjectKind, rest []string) error {
	if len(rest) == 0 {
		return ctlerr.NewParseError(ctlerr.ErrItems, "", "SETTING requires a driver or value")
	}
	switch upper(rest[0]) {
	case "CURVE":
		if len(rest) != 2 {
			return ctlerr.NewParseError(ctlerr.ErrItems, "CURVE", "CURVE requires exactly one name")
		}
		idx, ok := c.resolver.FindCurve(rest[1])
		if !ok {
			return ctlerr.NewParseError(ctlerr.ErrName, rest[1], "unknown curve")
		}
		action.Attribute = ActionSetting
		action.Driver = DriverCurve
		action.CurveIndex = idx

	case "TIMESERIES":
		if len(rest) != 2 {
			return ctlerr.NewParseError(ctlerr.ErrItems, "TIMESERIES", "TIMESERIES requires exactly one name")
		}
		idx, ok := c.resolver.FindTimeSeries(rest[1])
		if !ok {
			return ctlerr.NewParseError(ctlerr.ErrName, rest[1], "unknown time series")
		}
		action.Attribute = ActionSetting
		action.Driver = DriverTimeSeries
		action.TimeSeriesIndex = idx

	case "STACK":
		if len(rest) != 1 {
			return ctlerr.NewParseError(ctlerr.ErrItems, "STACK", "STACK takes no arguments")
		}
		action.Attribute = ActionSetting
		action.Driver = DriverStack

	case "PID", "PID2", "PID3":
		if len(rest) != 4 {
			return ctlerr.NewParseError(ctlerr.ErrItems, rest[0], "%s requires three gains", rest[0])
		}
		kp, err1 := strconv.ParseFloat(rest[1], 64)
		ki, err2 := strconv.ParseFloat(rest[2], 64)
		kd, err3 := strconv.ParseFloat(rest[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return ctlerr.NewParseError(ctlerr.ErrNumber, rest[0], "bad PID gains")
		}
		switch upper(rest[0]) {
		case "PID":
			action.Attribute = ActionPID
		case "PID2":
			action.Attribute = ActionPID2
		case "PID3":
			action.Attribute = ActionPID3
		}
		action.PID = PIDCoeffs{Kp: kp, Ki: ki, Kd: kd}
		action.Errors = &PIDErrors{}

	default:
		if len(rest) != 1 {
			return ctlerr.NewParseError(ctlerr.ErrItems, rest[0], "extra tokens")
		}
		v, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return ctlerr.NewParseError(ctlerr.ErrNumber, rest[0], "bad numeric literal")
		}
		if objKind != network.KindPump && (v < 0 || v > 1) {
			return ctlerr.NewSemanticError(ctlerr.ErrNumber, rest[0], "SETTING literal must be in [0,1] for non-pump links")
		}
		action.Attribute = ActionSetting
		action.Driver = DriverLiteral
		action.DirectValue = v
	}
	return nil
}
