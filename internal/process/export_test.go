package process

import (
	"sync/atomic"
	"syscall"
)

// CountSignals wraps h's signal delivery and returns a counter of the
// signals sent through it.
func CountSignals(h *Handle) *atomic.Int32 {
	var n atomic.Int32
	orig := h.signalFn
	h.signalFn = func(h *Handle, sig syscall.Signal) error {
		n.Add(1)
		return orig(h, sig)
	}
	return &n
}
