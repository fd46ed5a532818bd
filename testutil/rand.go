/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import "sync"

// SequenceRand returns scripted values from Intn, so that tests may fix which member
// a resume broadcast starts from. Every value is reduced modulo n.
// When the script is exhausted, it starts over.
type SequenceRand struct {
	mu     sync.Mutex
	values []int
	pos    int
	calls  []int
}

// NewSequenceRand creates a new SequenceRand with the given values.
func NewSequenceRand(values ...int) *SequenceRand {
	return &SequenceRand{values: values}
}

// Intn returns the next scripted value modulo n.
func (r *SequenceRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
	if len(r.values) == 0 || n <= 0 {
		return 0
	}
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return ((v % n) + n) % n
}

// Calls returns the n arguments Intn was called with.
func (r *SequenceRand) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}
