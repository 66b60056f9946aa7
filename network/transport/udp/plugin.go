package udp

import (
	"errors"
	"fmt"

	"github.com/solwatch/shredscan/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates a UDP transport plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Transport
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "udp_transport"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &UDPTransportCfg{}
}

// Setup initializes a UDP transport plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*UDPTransportCfg)
	if !ok {
		return nil, errors.New("udp setup failed: invalid config type")
	}

	ins, err := NewUDPTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("udp setup failed: %w", err)
	}
	return ins, nil
}

// Destroy shuts the UDP transport plugin down.
func (f *factory) Destroy(p plugin.Plugin) {
	if tp, ok := p.(*UDPTransport); ok && tp != nil {
		_ = tp.Stop()
	}
}
