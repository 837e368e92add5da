package core

import "time"

// BindingEventType enumerates the protocol transitions reported to sinks.
type BindingEventType string

const (
	BindingEventFixed    BindingEventType = "fixed"
	BindingEventBound    BindingEventType = "bound"
	BindingEventBorrowed BindingEventType = "borrowed"
	BindingEventReleased BindingEventType = "released"
	BindingEventCloned   BindingEventType = "cloned"
	BindingEventSevered  BindingEventType = "severed"
	BindingEventRedeemed BindingEventType = "redeemed"
	BindingEventSealed   BindingEventType = "sealed"
)

// BindingEvent is one audit record of a binding transition. Outstanding is
// the reference count observed right after the transition; under the
// cross-thread policy it is advisory.
type BindingEvent struct {
	ID          string
	BindingID   string
	Owner       string
	Policy      string
	Type        BindingEventType
	Outstanding int
	Metadata    map[string]any
	CreatedAt   time.Time
}

type BindingEventFilter struct {
	BindingID string
	Owner     string
	Policy    string
	Type      BindingEventType
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

type BindingEventPage struct {
	Items   []BindingEvent
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// BindingStatus is the supervisor's read model for one live binding.
type BindingStatus struct {
	BindingID   string
	Owner       string
	Policy      string
	Bound       bool
	Outstanding int
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
