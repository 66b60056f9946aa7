package redis

import (
	"errors"
	"fmt"

	"github.com/solwatch/shredscan/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates the redis reporter plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Reporter
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "redis_reporter"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &RedisReporterCfg{}
}

// Setup initializes a redis reporter plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*RedisReporterCfg)
	if !ok {
		return nil, errors.New("redis reporter setup failed: invalid config type")
	}

	ins, err := NewRedisReporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis reporter setup failed: %w", err)
	}
	return ins, nil
}

// Destroy closes the redis reporter plugin.
func (f *factory) Destroy(p plugin.Plugin) {
	if r, ok := p.(*RedisReporter); ok && r != nil {
		_ = r.Close()
	}
}
