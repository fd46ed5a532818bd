/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"strings"
	"sync"
)

// CompositeUnit starts and stops a set of units together.
type CompositeUnit struct {
	Units []Unit
}

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{units}
}

// Start launches all units concurrently and blocks until every Start call returns.
//
// If any unit fails, all units are stopped non-gracefully and a single CompositeUnitError,
// holding the failures and the stop errors, is written to fatalError.
func (cu *CompositeUnit) Start(fatalError chan<- error) {
	type result struct {
		err    error
		failed bool
	}
	results := make(chan result, len(cu.Units))
	for _, u := range cu.Units {
		go func(u Unit) {
			unitErr := make(chan error, 1)
			u.Start(unitErr)
			select {
			case err := <-unitErr:
				results <- result{err: err, failed: true}
			default:
				results <- result{}
			}
		}(u)
	}

	var errs []error
	for i := 0; i < len(cu.Units); i++ {
		res := <-results
		if !res.failed {
			continue
		}
		if len(errs) == 0 {
			// Remaining units may block in Start, so they are stopped at the first failure.
			if stopErr := cu.Stop(false); stopErr != nil {
				errs = append(errs, stopErr.(*CompositeUnitError).UnitErrors...)
			}
		}
		errs = append(errs, res.err)
	}
	if len(errs) > 0 {
		fatalError <- &CompositeUnitError{errs}
	}
}

// Stop stops all units concurrently.
// Errors that occurred while stopping the units are collected in a single CompositeUnitError.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup
	wg.Add(len(cu.Units))
	for _, u := range cu.Units {
		go func(u Unit) {
			defer wg.Done()
			if err := u.Stop(gracefully); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
	if len(errs) > 0 {
		return &CompositeUnitError{errs}
	}
	return nil
}

// MustRegisterMetrics registers metrics of all units that have them.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units that have them.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// CompositeUnitError is an error which may occurs in CompositeUnit's methods.
type CompositeUnitError struct {
	UnitErrors []error
}

// Error returns a string representation of a units composition error.
func (cue *CompositeUnitError) Error() string {
	msgs := make([]string, 0, len(cue.UnitErrors))
	for _, err := range cue.UnitErrors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap allows errors.Is and errors.As to look into errors of the units.
func (cue *CompositeUnitError) Unwrap() []error {
	return cue.UnitErrors
}
