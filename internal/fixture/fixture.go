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

// Package fixture loads a small JSON network snapshot standing in for
// the host's project symbol table and solver state (spec.md §6, listed
// as out-of-scope external collaborators): node/link names, link
// kinds, curves, time series, and the initial Network state cmd/rulectl
// drives rules against.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/probechain/go-rulectl/internal/network"
)

// Project is a minimal project symbol table plus initial solver state.
type Project struct {
	Nodes      []string
	Links      []LinkDef
	Curves     []string
	TimeSeries []string
	Net        network.Network
}

// LinkDef names a link and its underlying type.
type LinkDef struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func kindFromString(s string) (network.ObjectKind, bool) {
	switch s {
	case "CONDUIT":
		return network.KindConduit, true
	case "PUMP":
		return network.KindPump, true
	case "ORIFICE":
		return network.KindOrifice, true
	case "WEIR":
		return network.KindWeir, true
	case "OUTLET":
		return network.KindOutlet, true
	default:
		return 0, false
	}
}

// rawProject mirrors the on-disk JSON shape, including the initial
// per-object state arrays that seed Project.Net.
type rawProject struct {
	Nodes      []rawNode          `json:"nodes"`
	Links      []rawLink          `json:"links"`
	Curves     []string           `json:"curves"`
	TimeSeries []string           `json:"timeSeries"`
	Units      network.UnitSystem `json:"units"`
}

type rawNode struct {
	Name       string  `json:"name"`
	NewDepth   float64 `json:"depth"`
	NewVolume  float64 `json:"volume"`
	NewLatFlow float64 `json:"inflow"`
	InvertElev float64 `json:"invertElevation"`
}

type rawLink struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Direction   float64 `json:"direction"`
	NewFlow     float64 `json:"flow"`
	NewDepth    float64 `json:"depth"`
	Setting     float64 `json:"setting"`
	TimeLastSet float64 `json:"timeLastSet"`
}

// Load reads a JSON project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fixture: decoding %s: %w", path, err)
	}

	p := &Project{Curves: raw.Curves, TimeSeries: raw.TimeSeries}
	p.Net.Units = raw.Units
	if p.Net.Units == (network.UnitSystem{}) {
		p.Net.Units = network.DefaultUnitSystem()
	}

	for _, n := range raw.Nodes {
		p.Nodes = append(p.Nodes, n.Name)
		p.Net.Nodes = append(p.Net.Nodes, network.NodeState{
			NewDepth: n.NewDepth, NewVolume: n.NewVolume, NewLatFlow: n.NewLatFlow, InvertElev: n.InvertElev,
		})
	}
	for _, l := range raw.Links {
		kind, ok := kindFromString(l.Kind)
		if !ok {
			return nil, fmt.Errorf("fixture: link %q has unknown kind %q", l.Name, l.Kind)
		}
		direction := l.Direction
		if direction == 0 {
			direction = 1
		}
		p.Links = append(p.Links, LinkDef{Name: l.Name, Kind: l.Kind})
		p.Net.Links = append(p.Net.Links, network.LinkState{
			Kind: kind, Direction: direction, NewFlow: l.NewFlow, NewDepth: l.NewDepth,
			Setting: l.Setting, TimeLastSet: l.TimeLastSet,
		})
	}
	return p, nil
}

// FindObject implements network.SymbolResolver.
func (p *Project) FindObject(kind network.ObjectKind, name string) (int, bool) {
	if kind == network.KindNode {
		for i, n := range p.Nodes {
			if n == name {
				return i, true
			}
		}
		return 0, false
	}
	for i, l := range p.Links {
		if l.Name != name {
			continue
		}
		if kind == network.KindLink {
			return i, true
		}
		want, ok := kindFromString(l.Kind)
		if ok && want == kind {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

// FindCurve implements network.SymbolResolver.
func (p *Project) FindCurve(name string) (int, bool) {
	for i, c := range p.Curves {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// FindTimeSeries implements network.SymbolResolver.
func (p *Project) FindTimeSeries(name string) (int, bool) {
	for i, ts := range p.TimeSeries {
		if ts == name {
			return i, true
		}
	}
	return 0, false
}
