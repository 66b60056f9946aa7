// Package plugin implements the registry that wires optional components
// (metric reporters, transports, detection reporters) from configuration.
package plugin

// Type is the category of plugin supported by the system.
type Type string

const (
	// Metrics plugins report pipeline metrics to external backends.
	Metrics Type = "metrics"
	// Transport plugins feed datagrams into the ingest pipeline.
	Transport Type = "transport"
	// Reporter plugins deliver detection records downstream.
	Reporter Type = "reporter"
)

// Factory is the interface for plugin factories.
type Factory interface {
	// Type returns the plugin type.
	Type() Type
	// Name returns the name of the plugin implementation.
	Name() string
	// ConfigType returns an empty struct representing the plugin's
	// configuration; the manager populates it via mapstructure.
	ConfigType() any
	// Setup initializes a plugin instance based on the configuration.
	Setup(any) (Plugin, error)

	Destroy(Plugin)
}

// Plugin is an initialized plugin instance.
type Plugin interface {
	FactoryName() string
}
