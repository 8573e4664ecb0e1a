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
	"strings"

	"github.com/probechain/go-rulectl/internal/network"
)

// objectKeywords matches spec.md §6's <obj-kind> vocabulary, case
// insensitively.
var objectKeywords = map[string]network.ObjectKind{
	"NODE":       network.KindNode,
	"LINK":       network.KindLink,
	"CONDUIT":    network.KindConduit,
	"PUMP":       network.KindPump,
	"ORIFICE":    network.KindOrifice,
	"WEIR":       network.KindWeir,
	"OUTLET":     network.KindOutlet,
	"SIMULATION": network.KindSimulation,
	"STACK":      network.KindStack,
}

// attributeKeywords matches the attribute vocabulary; RESULT/OP are
// the stack pseudo-attributes.
var attributeKeywords = map[string]network.Attribute{
	"DEPTH":      network.AttrDepth,
	"HEAD":       network.AttrHead,
	"VOLUME":     network.AttrVolume,
	"INFLOW":     network.AttrInflow,
	"FLOW":       network.AttrFlow,
	"STATUS":     network.AttrStatus,
	"SETTING":    network.AttrSetting,
	"TIMEOPEN":   network.AttrTimeOpen,
	"TIMECLOSED": network.AttrTimeClosed,
	"TIME":       network.AttrTime,
	"DATE":       network.AttrDate,
	"CLOCKTIME":  network.AttrClockTime,
	"DAY":        network.AttrDay,
	"MONTH":      network.AttrMonth,
	"RESULT":     network.AttrStackResult,
	"OP":         network.AttrStackOp,
}

// relationKeywords is the merged comparison/RPN-operator table.
var relationKeywords = map[string]Relation{
	"=":  {Kind: RelationCmp, Cmp: CmpEQ},
	"<>": {Kind: RelationCmp, Cmp: CmpNE},
	"<":  {Kind: RelationCmp, Cmp: CmpLT},
	"<=": {Kind: RelationCmp, Cmp: CmpLE},
	">":  {Kind: RelationCmp, Cmp: CmpGT},
	">=": {Kind: RelationCmp, Cmp: CmpGE},

	"[ENTER]":  {Kind: RelationStack, Stk: StkEnter},
	"[POP]":    {Kind: RelationStack, Stk: StkPop},
	"[+]":      {Kind: RelationStack, Stk: StkAdd},
	"[-]":      {Kind: RelationStack, Stk: StkSub},
	"[*]":      {Kind: RelationStack, Stk: StkMul},
	"[/]":      {Kind: RelationStack, Stk: StkDiv},
	"[y^x]":    {Kind: RelationStack, Stk: StkPow},
	"[1/x]":    {Kind: RelationStack, Stk: StkInv},
	"[CHS]":    {Kind: RelationStack, Stk: StkNeg},
	"[SWAP]":   {Kind: RelationStack, Stk: StkSwap},
	"[LOG10]":  {Kind: RelationStack, Stk: StkLog10},
	"[LN]":     {Kind: RelationStack, Stk: StkLn},
	"[EXP]":    {Kind: RelationStack, Stk: StkExp},
	"[SQRT]":   {Kind: RelationStack, Stk: StkSqrt},
	"[SIN]":    {Kind: RelationStack, Stk: StkSin},
	"[COS]":    {Kind: RelationStack, Stk: StkCos},
	"[TAN]":    {Kind: RelationStack, Stk: StkTan},
	"[ASIN]":   {Kind: RelationStack, Stk: StkAsin},
	"[ACOS]":   {Kind: RelationStack, Stk: StkAcos},
	"[ATAN]":   {Kind: RelationStack, Stk: StkAtan},
	"[X=Y]":    {Kind: RelationStack, Stk: StkEq},
	"[X<>Y]":   {Kind: RelationStack, Stk: StkNe},
	"[X>Y]":    {Kind: RelationStack, Stk: StkGt},
	"[X>=Y]":   {Kind: RelationStack, Stk: StkGe},
	"[X<Y]":    {Kind: RelationStack, Stk: StkLt},
	"[X<=Y]":   {Kind: RelationStack, Stk: StkLe},
	"[BACK]":   {Kind: RelationStack, Stk: StkBack},
}

var statusKeywords = map[string]float64{"OFF": 0, "ON": 1}
var conduitKeywords = map[string]float64{"CLOSED": 0, "OPEN": 1}

// settingTypeKeywords match the <driver> keyword, excluding the
// literal-number and OFF/ON/OPEN/CLOSED cases handled separately.
var settingTypeKeywords = map[string]bool{
	"CURVE": true, "TIMESERIES": true, "PID": true, "PID2": true, "PID3": true, "STACK": true,
}

// dontCare is the "---" sentinel, which parses as literal 0.
const dontCare = "---"

func upper(s string) string { return strings.ToUpper(s) }

func lookupObject(tok string) (network.ObjectKind, bool) {
	k, ok := objectKeywords[upper(tok)]
	return k, ok
}

func lookupAttribute(tok string) (network.Attribute, bool) {
	a, ok := attributeKeywords[upper(tok)]
	return a, ok
}

func lookupRelation(tok string) (Relation, bool) {
	r, ok := relationKeywords[upper(tok)]
	return r, ok
}
