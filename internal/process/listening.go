package process

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// listenPollInterval is the delay between connection attempts.
const listenPollInterval = 100 * time.Millisecond

// WaitListening polls addr until it accepts a TCP connection, h exits, ctx
// is done, or timeout elapses. Some services print their banner slightly
// before the listener is usable; this closes that gap.
func WaitListening(ctx context.Context, h *Handle, addr string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("wait for %s on %s: timeout must be positive", h.name, addr)
	}
	var dialer net.Dialer
	attempt := 0
	err := wait.PollUntilContextTimeout(ctx, listenPollInterval, timeout, true,
		func(pollCtx context.Context) (bool, error) {
			if !h.Alive() {
				return false, prematureExit(h, nil, h.Output())
			}
			attempt++
			dialCtx, cancel := context.WithTimeout(pollCtx, time.Second)
			defer cancel()
			conn, err := dialer.DialContext(dialCtx, "tcp", addr)
			if err != nil {
				return false, nil
			}
			_ = conn.Close()
			h.log.Debug("process listening", "process", h.name, "addr", addr, "attempt", attempt)
			return true, nil
		})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPrematureExit) {
		return err
	}
	return fmt.Errorf("wait for %s on %s: %w", h.name, addr, err)
}
