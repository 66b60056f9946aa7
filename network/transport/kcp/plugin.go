package kcp

import (
	"errors"
	"fmt"

	"github.com/solwatch/shredscan/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates a KCP transport plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Transport
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "kcp_transport"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &KCPTransportCfg{}
}

// Setup initializes a KCP transport plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*KCPTransportCfg)
	if !ok {
		return nil, errors.New("kcp setup failed: invalid config type")
	}

	ins, err := NewKCPTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("kcp setup failed: %w", err)
	}
	return ins, nil
}

// Destroy shuts the KCP transport plugin down.
func (f *factory) Destroy(p plugin.Plugin) {
	if tp, ok := p.(*KCPTransport); ok && tp != nil {
		_ = tp.Stop()
	}
}
