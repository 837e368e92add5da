package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ OwnerRef          = (*Owner[struct{}])(nil)
	_ BindingEventSink  = (*QueuedEventSink)(nil)
	_ BindingEventStore = (*QueuedEventSink)(nil)
	_ ConfigProvider    = (*CfgxConfigProvider)(nil)
	_ OptionsResolver   = GoOptionsResolver{}
	_ RawConfigLoader   = staticRawConfigLoader{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
