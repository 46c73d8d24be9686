package metrics

import (
	"context"
	"errors"
	"time"
)

// OutcomeLabel enumerates how a scan or expansion ended.
type OutcomeLabel string

const (
	// OutcomeClean means the pass finished and found nothing broken.
	OutcomeClean OutcomeLabel = "clean"
	// OutcomeBroken means the pass finished but reported broken references.
	OutcomeBroken OutcomeLabel = "broken"
	// OutcomeFailed means the pass itself errored.
	OutcomeFailed OutcomeLabel = "failed"
	// OutcomeCanceled means the pass was canceled before finishing.
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines the observability hooks for scans, expansions and the
// watch loop. Implementations may forward to Prometheus or elsewhere.
type Recorder interface {
	ObserveScanDuration(d time.Duration)
	IncScanOutcome(outcome OutcomeLabel)
	SetFilesScanned(n int)
	SetRefsFound(n int)
	SetBrokenRefs(n int)
	ObserveExpandDuration(d time.Duration)
	IncExpandOutcome(outcome OutcomeLabel)
	IncWatchEvent(op string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScanDuration(time.Duration)   {}
func (NoopRecorder) IncScanOutcome(OutcomeLabel)         {}
func (NoopRecorder) SetFilesScanned(int)                 {}
func (NoopRecorder) SetRefsFound(int)                    {}
func (NoopRecorder) SetBrokenRefs(int)                   {}
func (NoopRecorder) ObserveExpandDuration(time.Duration) {}
func (NoopRecorder) IncExpandOutcome(OutcomeLabel)       {}
func (NoopRecorder) IncWatchEvent(string)                {}

// Outcome maps a pass result to its label: err wins over broken counts.
func Outcome(err error, broken int) OutcomeLabel {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case err != nil:
		return OutcomeFailed
	case broken > 0:
		return OutcomeBroken
	default:
		return OutcomeClean
	}
}
