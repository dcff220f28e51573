package stream

import "strings"

// Accumulator holds the model's output so far for one generation. Every
// non-empty delta is appended and the observer is invoked with the entire
// current text, not the delta — displays replace their content wholesale on
// each update, which removes any merge logic downstream.
//
// The accumulator has a single writer per generation; no locking is needed,
// only the reset-before-start ordering discipline.
type Accumulator struct {
	buf      strings.Builder
	observer func(full string)
}

// NewAccumulator returns an empty accumulator with no observer.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Observe registers the single observer slot, replacing any previous one.
func (a *Accumulator) Observe(fn func(full string)) {
	a.observer = fn
}

// Reset clears the buffer at the start of a new generation. The observer
// registration survives the reset.
func (a *Accumulator) Reset() {
	a.buf.Reset()
}

// Append folds one delta into the buffer and notifies the observer with the
// full accumulated text. Empty deltas are no-ops and never reach the observer.
func (a *Accumulator) Append(delta string) {
	if delta == "" {
		return
	}
	a.buf.WriteString(delta)
	if a.observer != nil {
		a.observer(a.buf.String())
	}
}

// Text returns the full accumulated text.
func (a *Accumulator) Text() string {
	return a.buf.String()
}
