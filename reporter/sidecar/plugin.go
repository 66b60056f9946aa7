package sidecar

import (
	"errors"
	"fmt"

	"github.com/solwatch/shredscan/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates the sidecar reporter plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Reporter
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "sidecar_reporter"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &SidecarReporterCfg{}
}

// Setup initializes a sidecar reporter plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*SidecarReporterCfg)
	if !ok {
		return nil, errors.New("sidecar reporter setup failed: invalid config type")
	}

	ins, err := NewSidecarReporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("sidecar reporter setup failed: %w", err)
	}
	return ins, nil
}

// Destroy closes the sidecar reporter plugin.
func (f *factory) Destroy(p plugin.Plugin) {
	if r, ok := p.(*SidecarReporter); ok && r != nil {
		_ = r.Close()
	}
}
