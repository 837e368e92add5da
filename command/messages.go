package command

import (
	"strings"

	"github.com/goliatone/go-tether/core"
)

const (
	TypeSeverBinding          = "tether.command.binding.sever"
	TypeRecordBindingEvent    = "tether.command.event.record"
	TypeEnforceEventRetention = "tether.command.event.enforce_retention"
)

type SeverBindingMessage struct {
	BindingID string
}

func (SeverBindingMessage) Type() string { return TypeSeverBinding }

func (m SeverBindingMessage) Validate() error {
	if strings.TrimSpace(m.BindingID) == "" {
		return commandValidationError("binding_id", "binding id is required")
	}
	return nil
}

type RecordBindingEventMessage struct {
	Event core.BindingEvent
}

func (RecordBindingEventMessage) Type() string { return TypeRecordBindingEvent }

func (m RecordBindingEventMessage) Validate() error {
	if strings.TrimSpace(m.Event.BindingID) == "" {
		return commandValidationError("event.binding_id", "binding id is required")
	}
	if strings.TrimSpace(string(m.Event.Type)) == "" {
		return commandValidationError("event.type", "event type is required")
	}
	return nil
}

type EnforceEventRetentionMessage struct{}

func (EnforceEventRetentionMessage) Type() string { return TypeEnforceEventRetention }

func (EnforceEventRetentionMessage) Validate() error { return nil }
