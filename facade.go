package tether

import (
	"fmt"

	tethercommand "github.com/goliatone/go-tether/command"
	tetherquery "github.com/goliatone/go-tether/query"
)

// CommandQueryService is the surface the facade dispatches against.
// *core.Runtime satisfies it.
type CommandQueryService interface {
	tethercommand.MutatingService
	tetherquery.BindingEventReader
	tetherquery.BindingStatusReader
}

type Commands struct {
	SeverBinding          *tethercommand.SeverBindingCommand
	RecordBindingEvent    *tethercommand.RecordBindingEventCommand
	EnforceEventRetention *tethercommand.EnforceEventRetentionCommand
}

type Queries struct {
	ListBindingEvents *tetherquery.ListBindingEventsQuery
	GetBindingStatus  *tetherquery.GetBindingStatusQuery
	ListBindings      *tetherquery.ListBindingsQuery
}

// Facade bundles the command and query handlers for one service so
// hosts can register them with a dispatcher in one place.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader tetherquery.BindingEventReader
}

// WithEventReader overrides the reader backing the event listing query.
func WithEventReader(reader tetherquery.BindingEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("tether: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.eventReader
	if reader == nil {
		reader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SeverBinding:          tethercommand.NewSeverBindingCommand(service),
		RecordBindingEvent:    tethercommand.NewRecordBindingEventCommand(service),
		EnforceEventRetention: tethercommand.NewEnforceEventRetentionCommand(service),
	}
	facade.queries = Queries{
		ListBindingEvents: tetherquery.NewListBindingEventsQuery(reader),
		GetBindingStatus:  tetherquery.NewGetBindingStatusQuery(service),
		ListBindings:      tetherquery.NewListBindingsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
