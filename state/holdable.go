package state

// This file makes references to RFC 6976:
// https://datatracker.ietf.org/doc/html/rfc6976

import (
	"fmt"

	"github.com/named-data/ndnd/std/types/optional"
)

// BringsUpFunc reports whether moving from current to next is an improvement
// (link coming up, metric decreasing, overload clearing). Improvements use the
// hold-up ttl, everything else uses the hold-down ttl.
type BringsUpFunc[T any] func(current, next T) bool

// HoldableValue is the basic building block for ordered FIB programming.
//
// UpdateValue keeps the previous value exposed for a number of ticks chosen by
// the direction of the change. Value returns the old value until DecrementTtl
// reports that the held value has taken effect.
type HoldableValue[T comparable] struct {
	val      T
	heldVal  optional.Optional[T]
	holdTtl  uint64
	bringsUp BringsUpFunc[T]
}

func NewHoldableValue[T comparable](val T, bringsUp BringsUpFunc[T]) *HoldableValue[T] {
	return &HoldableValue[T]{
		val:      val,
		heldVal:  optional.None[T](),
		bringsUp: bringsUp,
	}
}

// Value returns the value currently exposed to FIB programming
func (h *HoldableValue[T]) Value() T {
	return h.val
}

func (h *HoldableValue[T]) HasHold() bool {
	return h.holdTtl > 0
}

// Held returns the pending value, if any
func (h *HoldableValue[T]) Held() (T, bool) {
	return h.heldVal.Get()
}

// DecrementTtl advances the hold by one tick. It returns true only on the tick
// where the held value replaces the exposed one.
func (h *HoldableValue[T]) DecrementTtl() bool {
	if h.holdTtl == 0 {
		return false
	}
	h.holdTtl--
	if h.holdTtl > 0 {
		return false
	}
	if held, ok := h.heldVal.Get(); ok {
		h.val = held
	}
	h.heldVal.Unset()
	return true
}

// UpdateValue sets a new target value. It returns true if Value changed as a
// result of this call.
func (h *HoldableValue[T]) UpdateValue(val T, holdUpTtl, holdDownTtl uint64) bool {
	if val == h.val {
		// either a no-op, or the pending transition is cancelled
		h.heldVal.Unset()
		h.holdTtl = 0
		return false
	}

	ttl := holdDownTtl
	if h.isChangeBringingUp(val) {
		ttl = holdUpTtl
	}

	if ttl == 0 {
		h.val = val
		h.heldVal.Unset()
		h.holdTtl = 0
		return true
	}

	h.heldVal = optional.Some(val)
	h.holdTtl = ttl
	return false
}

// Converge is UpdateValue for periodically refreshed sources: if val is
// already pending, the running hold is kept instead of restarted.
func (h *HoldableValue[T]) Converge(val T, holdUpTtl, holdDownTtl uint64) bool {
	if held, ok := h.heldVal.Get(); ok && held == val && h.HasHold() {
		return false
	}
	return h.UpdateValue(val, holdUpTtl, holdDownTtl)
}

func (h *HoldableValue[T]) isChangeBringingUp(val T) bool {
	if h.bringsUp == nil {
		return false
	}
	return h.bringsUp(h.val, val)
}

func (h *HoldableValue[T]) String() string {
	if held, ok := h.heldVal.Get(); ok && h.HasHold() {
		return fmt.Sprintf("%v (-> %v in %d)", h.val, held, h.holdTtl)
	}
	return fmt.Sprintf("%v", h.val)
}

// MetricBringsUp treats a lower metric as an improvement
func MetricBringsUp(current, next Metric) bool {
	return next < current
}

// OverloadBringsUp treats clearing an overload as an improvement
func OverloadBringsUp(current, next bool) bool {
	return current && !next
}

// LinkUpBringsUp treats a link becoming usable as an improvement
func LinkUpBringsUp(current, next bool) bool {
	return !current && next
}
