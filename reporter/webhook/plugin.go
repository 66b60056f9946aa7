package webhook

import (
	"errors"
	"fmt"

	"github.com/solwatch/shredscan/plugin"
)

type factory struct{}

var _ plugin.Factory = (*factory)(nil)

// NewFactory creates the webhook reporter plugin factory.
func NewFactory() plugin.Factory {
	return &factory{}
}

// Type returns the plugin type.
func (f *factory) Type() plugin.Type {
	return plugin.Reporter
}

// Name returns the factory name used by plugin config.
func (f *factory) Name() string {
	return "webhook_reporter"
}

// ConfigType returns the config type for mapstructure decoding.
func (f *factory) ConfigType() any {
	return &WebhookReporterCfg{}
}

// Setup initializes a webhook reporter plugin instance.
func (f *factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*WebhookReporterCfg)
	if !ok {
		return nil, errors.New("webhook reporter setup failed: invalid config type")
	}

	ins, err := NewWebhookReporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("webhook reporter setup failed: %w", err)
	}
	return ins, nil
}

// Destroy closes the webhook reporter plugin.
func (f *factory) Destroy(p plugin.Plugin) {
	if r, ok := p.(*WebhookReporter); ok && r != nil {
		_ = r.Close()
	}
}
