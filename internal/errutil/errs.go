// Package errutil provides a lock-protected error accumulator for
// collecting failures across a batch of independent operations (e.g.
// per-peer audit verification, per-fragment reassembly) where the
// caller wants every failure, not just the first.
package errutil

import (
	"fmt"
	"strings"
	"sync"
)

// Errs accumulates errors from concurrent or sequential operations.
// The zero value is ready to use.
type Errs struct {
	mu   sync.RWMutex
	errs []error
}

// Add appends err if non-nil; a nil err is a no-op so callers can
// unconditionally Add the result of every step without branching.
func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

// Errored reports whether any error has been added.
func (e *Errs) Errored() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.errs) > 0
}

// Len returns the number of accumulated errors.
func (e *Errs) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.errs)
}

// Err returns nil if nothing was added, the single error unwrapped if
// exactly one was added, or an error wrapping String() otherwise.
func (e *Errs) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return fmt.Errorf("%s", e.string())
	}
}

// String renders all accumulated errors as a numbered list.
func (e *Errs) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.string()
}

func (e *Errs) string() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s) occurred:", len(e.errs))
	for _, err := range e.errs {
		b.WriteString("\n\t* ")
		b.WriteString(err.Error())
	}
	return b.String()
}
