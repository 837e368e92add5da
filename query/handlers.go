package query

import (
	"context"

	"github.com/goliatone/go-tether/core"
)

type BindingEventReader interface {
	ListBindingEvents(ctx context.Context, filter core.BindingEventFilter) (core.BindingEventPage, error)
}

type BindingStatusReader interface {
	GetBindingStatus(ctx context.Context, bindingID string) (core.BindingStatus, error)
	ListBindings(ctx context.Context) ([]core.BindingStatus, error)
}

type ListBindingEventsQuery struct {
	reader BindingEventReader
}

func NewListBindingEventsQuery(reader BindingEventReader) *ListBindingEventsQuery {
	return &ListBindingEventsQuery{reader: reader}
}

func (q *ListBindingEventsQuery) Query(ctx context.Context, msg ListBindingEventsMessage) (core.BindingEventPage, error) {
	if q == nil || q.reader == nil {
		return core.BindingEventPage{}, queryDependencyError("query: binding event reader is required")
	}
	return q.reader.ListBindingEvents(ctx, msg.Filter)
}

type GetBindingStatusQuery struct {
	reader BindingStatusReader
}

func NewGetBindingStatusQuery(reader BindingStatusReader) *GetBindingStatusQuery {
	return &GetBindingStatusQuery{reader: reader}
}

func (q *GetBindingStatusQuery) Query(ctx context.Context, msg GetBindingStatusMessage) (core.BindingStatus, error) {
	if q == nil || q.reader == nil {
		return core.BindingStatus{}, queryDependencyError("query: binding status reader is required")
	}
	return q.reader.GetBindingStatus(ctx, msg.BindingID)
}

type ListBindingsQuery struct {
	reader BindingStatusReader
}

func NewListBindingsQuery(reader BindingStatusReader) *ListBindingsQuery {
	return &ListBindingsQuery{reader: reader}
}

func (q *ListBindingsQuery) Query(ctx context.Context, msg ListBindingsMessage) ([]core.BindingStatus, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: binding status reader is required")
	}
	return q.reader.ListBindings(ctx)
}
