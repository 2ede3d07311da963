package core

import "time"

// Observer receives engine events. Implementations must be cheap; they are
// called synchronously on the binding and fill paths.
type Observer interface {
	// Bound is called when a child is materialized into the binding cache.
	Bound(kind Kind, view, name string)
	// Resolved is called after every switch or version-pick resolution.
	Resolved(kind Kind, view, name string, err error)
	// FillDispatched is called after a child's fill returns.
	FillDispatched(view, name string, changed bool, err error)
	// WaitFinished is called when the wait strategy stops waiting for a child.
	WaitFinished(view, name string, waited time.Duration, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Bound(Kind, string, string)                       {}
func (NopObserver) Resolved(Kind, string, string, error)             {}
func (NopObserver) FillDispatched(string, string, bool, error)       {}
func (NopObserver) WaitFinished(string, string, time.Duration, error) {}
