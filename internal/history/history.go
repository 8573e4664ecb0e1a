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

// Package history implements the BACK operator's data source (C3): it
// fetches a persisted attribute reading from the host's binary output
// results store for a past report period.
package history

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/probechain/go-rulectl/internal/network"
)

// ObjectKind distinguishes nodes from links in the results store;
// separate from network.ObjectKind because the store only ever
// indexes by these two families.
type ObjectKind int

const (
	KindNode ObjectKind = iota
	KindLink
)

// Store is the host's binary output reader (§6: "readNodeResults,
// readLinkResults ... indexed by report period").
type Store interface {
	// Nperiods returns the number of report periods recorded so far.
	Nperiods() int
	// ReportStep returns the results-store sampling interval, in seconds.
	ReportStep() float64

	NodeDepth(index, period int) (float64, bool)
	NodeHead(index, period int) (float64, bool)
	NodeInflow(index, period int) (float64, bool)
	LinkFlow(index, period int) (float64, bool)
	LinkDepth(index, period int) (float64, bool)
}

type cacheKey struct {
	kind   ObjectKind
	index  int
	period int
	attr   network.Attribute
}

// Reader fetches past attribute readings, caching recent lookups with
// an LRU so repeated BACK premises in a single step (or across rules
// touching the same object) don't re-hit the results store.
type Reader struct {
	store Store
	cache *lru.Cache
}

// DefaultCacheSize bounds how many distinct (kind, index, period, attr)
// readings the reader keeps warm.
const DefaultCacheSize = 512

// NewReader wraps store with an LRU cache of cacheSize entries.
// cacheSize <= 0 selects DefaultCacheSize.
func NewReader(store Store, cacheSize int) (*Reader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("history: building cache: %w", err)
	}
	return &Reader{store: store, cache: c}, nil
}

// Read fetches the value of attr for (kind, index) as of stepOffset
// report periods before the current one. It returns ok=false when
// stepOffset is negative, too large, or the (kind, attr) combination
// is unsupported — the caller must treat the premise as false.
func (r *Reader) Read(kind ObjectKind, index int, attr network.Attribute, stepOffset int) (float64, bool) {
	if stepOffset < 0 {
		return 0, false
	}
	n := r.store.Nperiods() - stepOffset
	if n <= 0 {
		return 0, false
	}
	period := n - 1 // convert to the store's 0-based period index

	key := cacheKey{kind: kind, index: index, period: period, attr: attr}
	if v, ok := r.cache.Get(key); ok {
		return v.(float64), true
	}

	var (
		v  float64
		ok bool
	)
	switch kind {
	case KindNode:
		switch attr {
		case network.AttrDepth:
			v, ok = r.store.NodeDepth(index, period)
		case network.AttrHead:
			v, ok = r.store.NodeHead(index, period)
		case network.AttrInflow:
			v, ok = r.store.NodeInflow(index, period)
		}
	case KindLink:
		switch attr {
		case network.AttrFlow:
			v, ok = r.store.LinkFlow(index, period)
		case network.AttrDepth:
			v, ok = r.store.LinkDepth(index, period)
		}
	}
	if !ok {
		return 0, false
	}
	r.cache.Add(key, v)
	return v, true
}

// StepOffset computes the report-period offset for a BACK premise on a
// Node/Link attribute, per spec.md §4.5: the immediate value is
// interpreted as seconds and divided by the report step.
func StepOffset(secondsBack, reportStep float64) int {
	if reportStep <= 0 {
		return -1
	}
	return int(secondsBack/reportStep + 0.5) // round-half-up
}
