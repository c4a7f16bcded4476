package tracker

import (
	"fmt"
	"time"

	"github.com/printpulse/printpulse/internal/event"
)

type exampleCountingNotifier struct {
	updates int
}

func (n *exampleCountingNotifier) Notify(evt event.Event) {
	if evt.Type == event.TypeProgressUpdate {
		n.updates++
	}
}

type exampleClock struct{}

func (exampleClock) Now() time.Time {
	return time.Unix(1700000000, 0).UTC()
}

// ExampleTracker demonstrates percent bucketing: four samples inside the
// same two whole percents produce exactly two progress updates.
func ExampleTracker() {
	sink := &exampleCountingNotifier{}
	tr := New(exampleClock{}, nil, sink)

	tr.PrintStarted("benchy.gcode")
	tr.Progress(0.010)
	tr.Progress(0.014)
	tr.Progress(0.019)
	tr.Progress(0.020)

	fmt.Printf("progress updates: %d\n", sink.updates)
	// Output:
	// progress updates: 2
}
