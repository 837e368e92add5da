package sqlstore

import "github.com/goliatone/go-tether/core"

var (
	_ core.BindingEventStore  = (*BindingEventStore)(nil)
	_ core.BindingEventPruner = (*BindingEventStore)(nil)
	_ core.BindingEventStore  = (*CachedBindingEventStore)(nil)
	_ core.BindingEventPruner = (*CachedBindingEventStore)(nil)
	_ core.EventStoreFactory  = (*StoreFactory)(nil)
)
