// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sort"
	"sync"
)

// Tracker counts live native objects by kind.
// The zero value is ready to use.
type Tracker struct {
	mutex sync.Mutex
	live  map[string]int
}

// Created records n new objects of a kind.
func (t *Tracker) Created(kind string, n int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.live == nil {
		t.live = make(map[string]int)
	}
	t.live[kind] += n
}

// Destroyed records n destroyed objects of a kind.
func (t *Tracker) Destroyed(kind string, n int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.live == nil {
		t.live = make(map[string]int)
	}
	t.live[kind] -= n
	if t.live[kind] == 0 {
		delete(t.live, kind)
	}
}

// Count returns the number of live objects of a kind.
func (t *Tracker) Count(kind string) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.live[kind]
}

// Total returns the number of all live objects.
func (t *Tracker) Total() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	var total int
	for _, n := range t.live {
		total += n
	}
	return total
}

// Live returns the kinds with a non zero count, sorted.
func (t *Tracker) Live() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	kinds := make([]string, 0, len(t.live))
	for kind := range t.live {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
