package process

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// WatchConfig configures AwaitReady.
type WatchConfig struct {
	// Pattern is tested against everything the process has written to
	// stdout, including output from before AwaitReady was called, so a
	// banner split across writes still matches.
	Pattern *regexp.Regexp
	// Timeout is the startup budget. Zero means no timeout.
	Timeout time.Duration
	// Terminate bounds the cleanup performed on timeout or cancellation.
	Terminate TerminateConfig
}

// AwaitReady blocks until h's stdout matches cfg.Pattern and settles exactly
// once with one of these outcomes:
//
//   - nil: the pattern matched; h is left running.
//   - *PrematureExitError: h exited first.
//   - *StartupTimeoutError: cfg.Timeout elapsed; h has been terminated.
//   - *StartAbortedError: ctx was done; h has been terminated.
func AwaitReady(ctx context.Context, h *Handle, cfg WatchConfig) error {
	if cfg.Pattern == nil {
		panic("browserenv: readiness pattern must not be nil")
	}
	sub, history := h.stdout.subscribe()
	defer h.stdout.unsubscribe(sub)

	var buf strings.Builder
	buf.Write(history)
	if cfg.Pattern.MatchString(buf.String()) {
		h.log.Debug("process ready", "process", h.name, "pid", h.pid)
		return nil
	}

	var timeout <-chan time.Time
	if cfg.Timeout > 0 {
		t := time.NewTimer(cfg.Timeout)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case chunk := <-sub.ch:
			buf.Write(chunk)
			if cfg.Pattern.MatchString(buf.String()) {
				h.log.Debug("process ready", "process", h.name, "pid", h.pid)
				return nil
			}

		case <-h.exited:
			if drain(sub, &buf, cfg.Pattern) {
				return nil
			}
			return prematureExit(h, cfg.Pattern, buf.String())

		case <-timeout:
			// An exit racing the timer is reported as an exit.
			if !h.Alive() {
				if drain(sub, &buf, cfg.Pattern) {
					return nil
				}
				return prematureExit(h, cfg.Pattern, buf.String())
			}
			status, termErr := Terminate(h, cfg.Terminate)
			return &StartupTimeoutError{
				Name:    h.name,
				PID:     h.pid,
				Pattern: cfg.Pattern,
				Timeout: cfg.Timeout,
				Output:  buf.String(),
				Stderr:  h.ErrorOutput(),
				Status:  status,
				TermErr: termErr,
			}

		case <-ctx.Done():
			status, termErr := Terminate(h, cfg.Terminate)
			return &StartAbortedError{
				Name:    h.name,
				PID:     h.pid,
				Cause:   context.Cause(ctx),
				Status:  status,
				TermErr: termErr,
			}
		}
	}
}

// drain consumes chunks already queued on sub, reporting whether the
// pattern matched. It is only called after exit, when no more writes come.
func drain(sub *subscription, buf *strings.Builder, pattern *regexp.Regexp) bool {
	for {
		select {
		case chunk := <-sub.ch:
			buf.Write(chunk)
		default:
			return pattern.MatchString(buf.String())
		}
	}
}

func prematureExit(h *Handle, pattern *regexp.Regexp, output string) error {
	status, _ := h.ExitStatus()
	return &PrematureExitError{
		Name:    h.name,
		PID:     h.pid,
		Status:  status,
		Pattern: pattern,
		Output:  output,
		Stderr:  h.ErrorOutput(),
	}
}
