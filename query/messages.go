package query

import (
	"strings"

	"github.com/goliatone/go-tether/core"
)

const (
	TypeListBindingEvents = "tether.query.events.list"
	TypeGetBindingStatus  = "tether.query.binding.status"
	TypeListBindings      = "tether.query.binding.list"
)

type ListBindingEventsMessage struct {
	Filter core.BindingEventFilter
}

func (ListBindingEventsMessage) Type() string { return TypeListBindingEvents }

func (ListBindingEventsMessage) Validate() error { return nil }

type GetBindingStatusMessage struct {
	BindingID string
}

func (GetBindingStatusMessage) Type() string { return TypeGetBindingStatus }

func (m GetBindingStatusMessage) Validate() error {
	if strings.TrimSpace(m.BindingID) == "" {
		return queryValidationError("binding_id", "binding id is required")
	}
	return nil
}

type ListBindingsMessage struct{}

func (ListBindingsMessage) Type() string { return TypeListBindings }

func (ListBindingsMessage) Validate() error { return nil }
