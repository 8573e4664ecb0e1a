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

// Resolver maps an object reference plus attribute to a live scalar
// reading (C2). It returns ok=false ("Missing") when the reference is
// inconsistent with the attribute or the attribute's precondition
// fails.
type Resolver struct {
	Net   *Network
	Clock Clock
}

// NewResolver builds a resolver over a live network snapshot.
func NewResolver(net *Network, clock Clock) *Resolver {
	if clock == nil {
		clock = DefaultClock{}
	}
	return &Resolver{Net: net, Clock: clock}
}

// Resolve returns the current value of ref given the shared evaluation
// context, or ok=false if the value is not available.
func (r *Resolver) Resolve(ref Ref, ctx *Context) (value float64, ok bool) {
	switch ref.Attribute {
	case AttrTime:
		return ctx.ElapsedTime, true
	case AttrDate:
		return ctx.Date, true
	case AttrClockTime:
		return ctx.ClockTime, true
	case AttrDay:
		return float64(r.Clock.Day(ctx.Date)), true
	case AttrMonth:
		return float64(r.Clock.Month(ctx.Date)), true
	}

	if !ref.HasIndex {
		return 0, false
	}

	switch ref.Attribute {
	case AttrFlow:
		link, ok := r.link(ref)
		if !ok {
			return 0, false
		}
		return link.Direction * link.NewFlow * r.Net.Units.UCF(QuantityFlow), true

	case AttrDepth:
		if ref.Kind == KindNode {
			node, ok := r.node(ref)
			if !ok {
				return 0, false
			}
			return node.NewDepth * r.Net.Units.UCF(QuantityLength), true
		}
		link, ok := r.link(ref)
		if !ok {
			return 0, false
		}
		return link.NewDepth * r.Net.Units.UCF(QuantityLength), true

	case AttrHead:
		node, ok := r.node(ref)
		if !ok {
			return 0, false
		}
		return (node.NewDepth + node.InvertElev) * r.Net.Units.UCF(QuantityLength), true

	case AttrVolume:
		node, ok := r.node(ref)
		if !ok {
			return 0, false
		}
		return node.NewVolume * r.Net.Units.UCF(QuantityVolume), true

	case AttrInflow:
		node, ok := r.node(ref)
		if !ok {
			return 0, false
		}
		return node.NewLatFlow * r.Net.Units.UCF(QuantityFlow), true

	case AttrStatus:
		link, ok := r.link(ref)
		if !ok || (link.Kind != KindConduit && link.Kind != KindPump) {
			return 0, false
		}
		if link.Setting > 0 {
			return 1, true
		}
		return 0, true

	case AttrSetting:
		link, ok := r.link(ref)
		if !ok || (link.Kind != KindOrifice && link.Kind != KindWeir) {
			return 0, false
		}
		return link.Setting, true

	case AttrTimeOpen:
		link, ok := r.link(ref)
		if !ok || link.Setting <= 0 {
			return 0, false
		}
		return ctx.Date + ctx.ClockTime - link.TimeLastSet, true

	case AttrTimeClosed:
		link, ok := r.link(ref)
		if !ok || link.Setting > 0 {
			return 0, false
		}
		return ctx.Date + ctx.ClockTime - link.TimeLastSet, true

	default:
		return 0, false
	}
}

func (r *Resolver) node(ref Ref) (NodeState, bool) {
	if ref.Kind != KindNode || ref.Index < 0 || ref.Index >= len(r.Net.Nodes) {
		return NodeState{}, false
	}
	return r.Net.Nodes[ref.Index], true
}

func (r *Resolver) link(ref Ref) (LinkState, bool) {
	if !ref.Kind.IsLinkFamily() || ref.Index < 0 || ref.Index >= len(r.Net.Links) {
		return LinkState{}, false
	}
	link := r.Net.Links[ref.Index]
	// A typed reference (CONDUIT/PUMP/ORIFICE/WEIR/OUTLET) must match the
	// link's actual underlying kind; the generic LINK kind matches any.
	if ref.Kind != KindLink && ref.Kind != link.Kind {
		return LinkState{}, false
	}
	return link, true
}
