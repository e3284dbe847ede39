package browserenv_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/giantswarm/browserenv"
)

// allErrors lists every exported sentinel error.
var allErrors = map[string]error{
	"ErrAlreadyStarted": browserenv.ErrAlreadyStarted,
	"ErrCrashed":        browserenv.ErrCrashed,
	"ErrInstall":        browserenv.ErrInstall,
	"ErrNotInstalled":   browserenv.ErrNotInstalled,
	"ErrNotStarted":     browserenv.ErrNotStarted,
	"ErrPrematureExit":  browserenv.ErrPrematureExit,
	"ErrSpawn":          browserenv.ErrSpawn,
	"ErrStartAborted":   browserenv.ErrStartAborted,
	"ErrStartupTimeout": browserenv.ErrStartupTimeout,
	"ErrStopTimedOut":   browserenv.ErrStopTimedOut,
	"ErrUnresponsive":   browserenv.ErrUnresponsive,
}

// TestPublicErrorConstants verifies that every exported error constant has
// a message and matches itself, directly and wrapped.
func TestPublicErrorConstants(t *testing.T) {
	t.Parallel()

	for name, sentinel := range allErrors {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if sentinel == nil {
				t.Fatalf("%s is nil", name)
			}
			if msg := sentinel.Error(); msg == "" {
				t.Errorf("%s.Error() returned empty string", name)
			}
			if !errors.Is(sentinel, sentinel) {
				t.Errorf("errors.Is(%s, %s) = false, want true (self-match)", name, name)
			}
			wrapped := fmt.Errorf("wrapping: %w", sentinel)
			if !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped %s) = false, want true", name)
			}
			if errors.Is(sentinel, errors.New("some other error")) {
				t.Errorf("errors.Is(%s, errors.New(...)) = true, want false", name)
			}
		})
	}
}

// TestPublicErrorConstantsAreDistinct verifies that no two exported error
// constants are equal to each other.
func TestPublicErrorConstantsAreDistinct(t *testing.T) {
	t.Parallel()

	for a, errA := range allErrors {
		for b, errB := range allErrors {
			if a != b && errors.Is(errA, errB) {
				t.Errorf("errors.Is(%s, %s) = true: constants must be distinct", a, b)
			}
		}
	}
}

// TestTypedErrorsMatchSentinels checks that each typed error answers to its
// sentinel, so callers can use either errors.Is or errors.As.
func TestTypedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want error
	}{
		"spawn":          {err: &browserenv.SpawnError{Name: "selenium", Err: errors.New("no java")}, want: browserenv.ErrSpawn},
		"premature exit": {err: &browserenv.PrematureExitError{Name: "selenium"}, want: browserenv.ErrPrematureExit},
		"startup timeout": {
			err:  &browserenv.StartupTimeoutError{Name: "browsermob"},
			want: browserenv.ErrStartupTimeout,
		},
		"start aborted": {err: &browserenv.StartAbortedError{Name: "browsermob"}, want: browserenv.ErrStartAborted},
		"unresponsive":  {err: &browserenv.UnresponsiveError{Name: "browsermob"}, want: browserenv.ErrUnresponsive},
		"install":       {err: &browserenv.InstallError{Name: "selenium", Err: errors.New("404")}, want: browserenv.ErrInstall},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tc.err, tc.want) {
				t.Errorf("errors.Is(%T, %v) = false, want true", tc.err, tc.want)
			}
			if !errors.Is(fmt.Errorf("start: %w", tc.err), tc.want) {
				t.Errorf("wrapped %T does not match %v", tc.err, tc.want)
			}
		})
	}
}

func TestStartErrorCarriesPrimaryAndSecondary(t *testing.T) {
	t.Parallel()

	err := error(&browserenv.StartError{
		Primary: &browserenv.ServiceError{
			Service: browserenv.SeleniumService,
			Err:     &browserenv.PrematureExitError{Name: browserenv.SeleniumService},
		},
		Secondary: []*browserenv.ServiceError{{
			Service: browserenv.BrowserMobService,
			Err:     &browserenv.StartAbortedError{Name: browserenv.BrowserMobService},
		}},
	})

	if !errors.Is(err, browserenv.ErrPrematureExit) {
		t.Error("StartError does not expose the primary failure kind")
	}
	if !errors.Is(err, browserenv.ErrStartAborted) {
		t.Error("StartError does not expose the secondary failure kind")
	}
	var premature *browserenv.PrematureExitError
	if !errors.As(err, &premature) || premature.Name != browserenv.SeleniumService {
		t.Errorf("errors.As PrematureExitError = %+v", premature)
	}
}
