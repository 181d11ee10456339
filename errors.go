package versionwatch

import (
	"errors"
	"fmt"
)

// ErrStatus is wrapped when the manifest endpoint answers with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// Phase tells which part of the monitor lifecycle a fetch belonged to.
type Phase string

const (
	// PhaseBaseline is the initial fetch made by Start. Its failure leaves the monitor stopped.
	PhaseBaseline Phase = "baseline"
	// PhasePoll is a fetch made by a tick. Its failure is reported and polling continues.
	PhasePoll Phase = "poll"
)

// FetchError reports a failed fetch-and-decode. Network errors, non-2xx
// responses and malformed manifests all surface as FetchError.
type FetchError struct {
	Phase Phase
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch of %s failed: %v", e.Phase, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
