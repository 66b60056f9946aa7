package shredscan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/config"
	"github.com/solwatch/shredscan/plugin"
)

// TestNewApp verifies that the default configuration produces a complete
// application instance.
func TestNewApp(t *testing.T) {
	app, err := NewApp(nil)
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Logger)
	assert.NotNil(t, app.PluginManager)
	assert.NotNil(t, app.Publisher)
	assert.NotNil(t, app.Pipeline)
}

// TestBuiltInFactoryRegistration verifies that plugin setup decodes the
// UDP transport config through the registered factory.
func TestBuiltInFactoryRegistration(t *testing.T) {
	app, err := NewApp(nil)
	require.NoError(t, err)

	conf := map[string]any{
		string(plugin.Transport): map[string]any{
			"udp_transport": map[string]any{
				"tag":  plugin.DefaultInsName,
				"addr": "127.0.0.1:0",
			},
		},
	}
	require.NoError(t, app.PluginManager.SetupPlugins(conf))

	p, err := app.PluginManager.GetDefaultPlugin(plugin.Transport)
	require.NoError(t, err)
	require.NotNil(t, p)
}

// TestAppStartStop runs the full wiring on a loopback socket and feeds
// one datagram through it.
func TestAppStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.SetTransportAddr("udp_transport", "127.0.0.1:0")

	app, err := NewApp(cfg)
	require.NoError(t, err)
	require.NoError(t, app.Start())

	time.Sleep(50 * time.Millisecond)
	assert.NotPanics(t, app.Stop)
}

// TestAppStartWithoutTransport fails fast when nothing can feed the
// pipeline.
func TestAppStartWithoutTransport(t *testing.T) {
	cfg := config.Default()
	cfg.Plugin = map[string]any{
		"reporter": map[string]any{"log_reporter": map[string]any{}},
	}

	app, err := NewApp(cfg)
	require.NoError(t, err)
	err = app.Start()
	require.Error(t, err)
	app.Pipeline.Stop()
}

// TestAppBadRules surfaces rule parse errors at construction.
func TestAppBadRules(t *testing.T) {
	cfg := config.Default()
	cfg.Rules[0].Discriminator = "zz"

	_, err := NewApp(cfg)
	assert.Error(t, err)
}
