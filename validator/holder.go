package validator

import (
	"sync/atomic"

	wqschema "github.com/reoring/wqschema"
)

// Holder publishes the current compiled Validator so a recompiled schema can
// replace it while other goroutines keep validating. Readers never block.
type Holder struct {
	cur atomic.Pointer[Validator]
}

var _ wqschema.Validator = (*Holder)(nil)

// NewHolder returns a Holder serving v. v must not be nil.
func NewHolder(v *Validator) *Holder {
	h := &Holder{}
	h.cur.Store(v)
	return h
}

// Load returns the current Validator.
func (h *Holder) Load() *Validator { return h.cur.Load() }

// Swap installs next and returns the previous Validator. Nil values are
// ignored, and so is a Validator compiled from the same schema with the same
// options (equal fingerprints); swapped reports whether next was installed.
func (h *Holder) Swap(next *Validator) (prev *Validator, swapped bool) {
	if next == nil {
		return h.cur.Load(), false
	}
	for {
		old := h.cur.Load()
		if old != nil && old.fingerprint != 0 && old.fingerprint == next.fingerprint {
			return old, false
		}
		if h.cur.CompareAndSwap(old, next) {
			return old, true
		}
	}
}

// Validate validates rec with the current Validator.
func (h *Holder) Validate(rec wqschema.Record) wqschema.Result {
	return h.cur.Load().Validate(rec)
}
