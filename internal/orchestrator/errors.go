package orchestrator

import (
	"fmt"
	"strings"

	"github.com/giantswarm/browserenv/internal/sentinel"
)

const (
	// ErrStopTimedOut is reported for a service still stopping when the
	// Stop context ended.
	ErrStopTimedOut = sentinel.Error("service did not stop in time")

	// ErrDuplicateHandle reports two services sharing one process handle.
	ErrDuplicateHandle = sentinel.Error("process handle shared by two services")
)

// ServiceError attributes a failure to a service.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string { return e.Service + ": " + e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// StartError is returned by Start when at least one service failed. Primary
// is the failure that triggered cancellation; Secondary holds all others,
// including aborts caused by that cancellation. errors.Is and errors.As
// reach every one of them.
type StartError struct {
	Primary   *ServiceError
	Secondary []*ServiceError
}

func (e *StartError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "start failed: %v", e.Primary)
	for _, s := range e.Secondary {
		fmt.Fprintf(&b, "; also %v", s)
	}
	return b.String()
}

func (e *StartError) Unwrap() []error {
	errs := make([]error, 0, 1+len(e.Secondary))
	errs = append(errs, e.Primary)
	for _, s := range e.Secondary {
		errs = append(errs, s)
	}
	return errs
}
