package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tether/core"
)

var (
	_ gocmd.Querier[ListBindingEventsMessage, core.BindingEventPage] = (*ListBindingEventsQuery)(nil)
	_ gocmd.Querier[GetBindingStatusMessage, core.BindingStatus]     = (*GetBindingStatusQuery)(nil)
	_ gocmd.Querier[ListBindingsMessage, []core.BindingStatus]       = (*ListBindingsQuery)(nil)
)
