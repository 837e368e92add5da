package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SeverBindingMessage]          = (*SeverBindingCommand)(nil)
	_ gocmd.Commander[RecordBindingEventMessage]    = (*RecordBindingEventCommand)(nil)
	_ gocmd.Commander[EnforceEventRetentionMessage] = (*EnforceEventRetentionCommand)(nil)
)
