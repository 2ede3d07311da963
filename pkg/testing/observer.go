package testing

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/widgetry/pkg/core"
)

// Event is one observer callback, flattened for assertions.
type Event struct {
	Type string
	Kind core.Kind
	View string
	Name string
	Err  error
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s.%s", e.Type, e.Kind, e.View, e.Name)
}

// RecordingObserver is a core.Observer that keeps every event.
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
}

var _ core.Observer = (*RecordingObserver)(nil)

func (o *RecordingObserver) add(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *RecordingObserver) Bound(kind core.Kind, view, name string) {
	o.add(Event{Type: "bound", Kind: kind, View: view, Name: name})
}

func (o *RecordingObserver) Resolved(kind core.Kind, view, name string, err error) {
	o.add(Event{Type: "resolved", Kind: kind, View: view, Name: name, Err: err})
}

func (o *RecordingObserver) FillDispatched(view, name string, changed bool, err error) {
	o.add(Event{Type: "fill", View: view, Name: name, Err: err})
}

func (o *RecordingObserver) WaitFinished(view, name string, waited time.Duration, err error) {
	o.add(Event{Type: "wait", View: view, Name: name, Err: err})
}

// Events returns the recorded events of the given type, or all events when
// typ is empty.
func (o *RecordingObserver) Events(typ string) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.events {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
