package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tether/core"
)

// MutatingService is the slice of the runtime the commands need.
type MutatingService interface {
	SeverBinding(ctx context.Context, bindingID string) (bool, error)
	RecordBindingEvent(ctx context.Context, event core.BindingEvent) error
	EnforceEventRetention(ctx context.Context) (int, error)
}

type SeverBindingCommand struct {
	service MutatingService
}

func NewSeverBindingCommand(service MutatingService) *SeverBindingCommand {
	return &SeverBindingCommand{service: service}
}

func (c *SeverBindingCommand) Execute(ctx context.Context, msg SeverBindingMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sever binding service is required")
	}
	sealed, err := c.service.SeverBinding(ctx, msg.BindingID)
	if err != nil {
		return err
	}
	storeResult(ctx, sealed)
	return nil
}

type RecordBindingEventCommand struct {
	service MutatingService
}

func NewRecordBindingEventCommand(service MutatingService) *RecordBindingEventCommand {
	return &RecordBindingEventCommand{service: service}
}

func (c *RecordBindingEventCommand) Execute(ctx context.Context, msg RecordBindingEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: record binding event service is required")
	}
	return c.service.RecordBindingEvent(ctx, msg.Event)
}

type EnforceEventRetentionCommand struct {
	service MutatingService
}

func NewEnforceEventRetentionCommand(service MutatingService) *EnforceEventRetentionCommand {
	return &EnforceEventRetentionCommand{service: service}
}

func (c *EnforceEventRetentionCommand) Execute(ctx context.Context, msg EnforceEventRetentionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: event retention service is required")
	}
	deleted, err := c.service.EnforceEventRetention(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, deleted)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
