// Package prometheus registers the Prometheus metrics reporter as a
// plugin so deployments can enable it from configuration.
package prometheus

import (
	"fmt"

	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/plugin"
)

// Factory builds Prometheus reporter plugins.
type Factory struct{}

// Type returns the plugin type.
func (f *Factory) Type() plugin.Type {
	return plugin.Metrics
}

// Name returns the name of the plugin implementation.
func (f *Factory) Name() string {
	return "prometheus"
}

// ConfigType returns an empty config struct to be populated by the
// manager via mapstructure.
func (f *Factory) ConfigType() any {
	return &metrics.PrometheusReporterConfig{}
}

// Setup starts a Prometheus reporter and registers it with the global
// metrics reporter list.
func (f *Factory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*metrics.PrometheusReporterConfig)
	if !ok {
		return nil, fmt.Errorf("prometheus setup: unexpected config type %T", cfgAny)
	}

	p, err := metrics.NewPrometheusReporter(cfg)
	if err != nil {
		return nil, err
	}

	metrics.AddMetricsReporter(p)

	return p, nil
}

// Destroy stops the reporter.
func (f *Factory) Destroy(p plugin.Plugin) {
	if prom, ok := p.(*metrics.PrometheusReporter); ok {
		prom.Stop()
	}
}
