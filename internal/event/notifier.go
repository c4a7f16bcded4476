package event

// Notifier receives individual events for delivery or observation. The
// tracker calls Notify inline on the host path, so implementations must
// return immediately and never surface errors to the caller.
type Notifier interface {
	Notify(evt Event)
}
