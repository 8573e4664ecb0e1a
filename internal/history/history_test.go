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

package history

import (
	"testing"

	"github.com/probechain/go-rulectl/internal/network"
)

type fakeStore struct {
	nperiods   int
	reportStep float64
	depths     map[int]map[int]float64 // index -> period -> value
	reads      int
}

func (f *fakeStore) Nperiods() int         { return f.nperiods }
func (f *fakeStore) ReportStep() float64   { return f.reportStep }
func (f *fakeStore) NodeDepth(index, period int) (float64, bool) {
	f.reads++
	byPeriod, ok := f.depths[index]
	if !ok {
		return 0, false
	}
	v, ok := byPeriod[period]
	return v, ok
}
func (f *fakeStore) NodeHead(index, period int) (float64, bool)   { return 0, false }
func (f *fakeStore) NodeInflow(index, period int) (float64, bool) { return 0, false }
func (f *fakeStore) LinkFlow(index, period int) (float64, bool)   { return 0, false }
func (f *fakeStore) LinkDepth(index, period int) (float64, bool)  { return 0, false }

func TestReadWithinRange(t *testing.T) {
	store := &fakeStore{
		nperiods:   10,
		reportStep: 60,
		depths:     map[int]map[int]float64{0: {4: 2.5}},
	}
	r, err := NewReader(store, 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	// Nperiods=10, stepOffset=5 -> n=5 -> period index 4.
	v, ok := r.Read(KindNode, 0, network.AttrDepth, 5)
	if !ok || v != 2.5 {
		t.Fatalf("Read = %v, %v; want 2.5, true", v, ok)
	}
}

func TestReadOffsetExceedsNperiods(t *testing.T) {
	store := &fakeStore{nperiods: 3, reportStep: 60}
	r, _ := NewReader(store, 0)
	if _, ok := r.Read(KindNode, 0, network.AttrDepth, 5); ok {
		t.Fatalf("Read with offset > Nperiods should fail")
	}
}

func TestReadCachesRepeatedLookups(t *testing.T) {
	store := &fakeStore{
		nperiods:   10,
		reportStep: 60,
		depths:     map[int]map[int]float64{0: {4: 2.5}},
	}
	r, _ := NewReader(store, 0)
	r.Read(KindNode, 0, network.AttrDepth, 5)
	r.Read(KindNode, 0, network.AttrDepth, 5)
	if store.reads != 1 {
		t.Fatalf("store.reads = %d, want 1 (second read should hit cache)", store.reads)
	}
}

func TestStepOffsetRounding(t *testing.T) {
	if got := StepOffset(300, 60); got != 5 {
		t.Fatalf("StepOffset(300, 60) = %d, want 5", got)
	}
}
