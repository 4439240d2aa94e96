package ports

import "github.com/user/framescope/pkg/events"

// Notifier delivers events to the calling process.
// Notify must not block the caller on delivery.
type Notifier interface {
	Notify(ev events.Event)
}
