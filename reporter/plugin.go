package reporter

import (
	"github.com/solwatch/shredscan/plugin"
)

type logFactory struct{}

var _ plugin.Factory = (*logFactory)(nil)

// NewLogFactory creates the log reporter plugin factory.
func NewLogFactory() plugin.Factory {
	return &logFactory{}
}

// LogReporterCfg is empty; the log reporter has nothing to configure.
type LogReporterCfg struct{}

func (f *logFactory) Type() plugin.Type { return plugin.Reporter }

func (f *logFactory) Name() string { return "log_reporter" }

func (f *logFactory) ConfigType() any { return &LogReporterCfg{} }

func (f *logFactory) Setup(any) (plugin.Plugin, error) {
	return NewLogReporter(), nil
}

func (f *logFactory) Destroy(plugin.Plugin) {}
