// Package shredscan assembles the ingest application: logger, plugin
// manager, event publisher, and the pipeline, wired from one Config.
package shredscan

import (
	"fmt"
	"time"

	"github.com/solwatch/shredscan/config"
	"github.com/solwatch/shredscan/event"
	"github.com/solwatch/shredscan/ledger"
	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/metrics/prometheus"
	"github.com/solwatch/shredscan/network/transport"
	"github.com/solwatch/shredscan/network/transport/kcp"
	"github.com/solwatch/shredscan/network/transport/tcp"
	"github.com/solwatch/shredscan/network/transport/udp"
	"github.com/solwatch/shredscan/pipeline"
	"github.com/solwatch/shredscan/plugin"
	"github.com/solwatch/shredscan/reporter"
	redisrep "github.com/solwatch/shredscan/reporter/redis"
	sidecarrep "github.com/solwatch/shredscan/reporter/sidecar"
	webhookrep "github.com/solwatch/shredscan/reporter/webhook"
	"github.com/solwatch/shredscan/scan"
	"github.com/solwatch/shredscan/utils/file"
)

// App is the core application struct, holding the major components.
type App struct {
	Logger        log.Logger
	PluginManager *plugin.Manager
	Publisher     *event.Publisher
	Pipeline      *pipeline.Pipeline

	cfg    *config.Config
	fanout *reporter.Fanout
	lock   *file.FileLock
}

// NewApp builds an App from cfg. Nothing is started yet; transports and
// reporters come online in Start.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logCfg := cfg.Log
	if err := logCfg.Validate(); err != nil {
		return nil, fmt.Errorf("log config: %w", err)
	}
	logger := log.NewLogger(&logCfg)
	log.SetDefaultLogger(logger)

	pluginManager := plugin.NewManager()
	for _, f := range builtinFactories() {
		pluginManager.RegisterFactory(f)
	}

	publisher := event.NewPublisher()
	if err := publisher.NewTopic(event.ReloadConfig, time.Second); err != nil {
		return nil, err
	}
	if err := publisher.NewTopic(event.StreamStats, time.Second); err != nil {
		return nil, err
	}

	rules, err := cfg.EventRules()
	if err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}

	fanout := reporter.NewFanout()
	pipe := pipeline.New(cfg.Pipeline, ledger.NewMsgpackDecoder(), scan.New(rules), fanout, publisher)

	app := &App{
		Logger:        logger,
		PluginManager: pluginManager,
		Publisher:     publisher,
		Pipeline:      pipe,
		cfg:           cfg,
		fanout:        fanout,
	}

	logger.Info().Int("rules", len(rules)).Msg("shredscan application initialized")
	return app, nil
}

// builtinFactories lists every plugin factory shipped with the binary.
func builtinFactories() []plugin.Factory {
	return []plugin.Factory{
		udp.NewFactory(),
		tcp.NewFactory(),
		kcp.NewFactory(),
		reporter.NewLogFactory(),
		redisrep.NewFactory(),
		webhookrep.NewFactory(),
		sidecarrep.NewFactory(),
		&prometheus.Factory{},
	}
}

// Start sets up the configured plugins, connects reporters to the
// fanout, starts the pipeline, and brings the transports online.
func (a *App) Start() error {
	if a.cfg.LockFile != "" {
		lock := file.NewFileLock(a.cfg.LockFile)
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("instance lock: %w", err)
		}
		a.lock = lock
	}

	if err := a.PluginManager.SetupPlugins(a.cfg.Plugin); err != nil {
		return fmt.Errorf("plugin setup: %w", err)
	}

	a.PluginManager.RangePlugins(plugin.Reporter, func(name string, p plugin.Plugin) {
		if r, ok := p.(reporter.Reporter); ok {
			a.fanout.Add(r)
			log.Info().Str("reporter", r.Name()).Msg("reporter attached")
		}
	})
	if a.fanout.Len() == 0 {
		a.fanout.Add(reporter.NewLogReporter())
		log.Info().Msg("no reporter configured, falling back to log reporter")
	}

	a.Pipeline.Start()

	var startErr error
	started := 0
	a.PluginManager.RangePlugins(plugin.Transport, func(name string, p plugin.Plugin) {
		tr, ok := p.(transport.Transport)
		if !ok {
			return
		}
		if err := tr.Start(transport.TransportOption{Handler: a.Pipeline}); err != nil {
			if startErr == nil {
				startErr = fmt.Errorf("transport '%s': %w", name, err)
			}
			return
		}
		started++
	})
	if startErr != nil {
		return startErr
	}
	if started == 0 {
		return fmt.Errorf("no transport configured")
	}

	log.Info().Int("transports", started).Msg("shredscan started")
	return nil
}

// Stop shuts the application down in dependency order: transports first
// so the queue stops filling, then the pipeline, then the reporters.
func (a *App) Stop() {
	log.Info().Msg("shredscan shutting down")

	a.PluginManager.RangePlugins(plugin.Transport, func(name string, p plugin.Plugin) {
		if tr, ok := p.(transport.Transport); ok {
			_ = tr.StopRecv()
		}
	})

	a.Pipeline.Stop()

	if err := a.fanout.Close(); err != nil {
		log.Warn().Err(err).Msg("reporter close failed")
	}
	a.PluginManager.DestroyPlugins()
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
	log.Close()
}
