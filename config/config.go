// Package config loads the process configuration from YAML with
// environment overrides. The plugin section stays an untyped map; the
// plugin manager decodes each entry against its factory's config type.
package config

import (
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/scan"
)

// Environment variables recognized at startup.
const (
	// EnvConfigPath points at the YAML config file.
	EnvConfigPath = "SHREDSCAN_CONFIG"
	// EnvListenAddr overrides the UDP transport listen address.
	EnvListenAddr = "SHREDSCAN_ADDR"
)

// Shipped default detection rule: the pumpfun CREATE instruction.
const (
	// DefaultProgramHex is the pump.fun program id.
	DefaultProgramHex = "0156e0f693665acf44db1568bf175baa5189cb97f5d2ff3b655d2bb6fd6d18b0"
	// DefaultDiscriminatorHex is the CREATE method discriminator.
	DefaultDiscriminatorHex = "181ec828051c0777"
)

// RuleCfg is the YAML form of one scan rule. Program id and
// discriminator are lowercase hex.
type RuleCfg struct {
	Name              string `yaml:"name" mapstructure:"name"`
	Program           string `yaml:"program" mapstructure:"program"`
	Discriminator     string `yaml:"discriminator" mapstructure:"discriminator"`
	TokenIndex        int    `yaml:"tokenIndex" mapstructure:"tokenIndex"`
	BondingCurveIndex int    `yaml:"bondingCurveIndex" mapstructure:"bondingCurveIndex"`
	CreatorIndex      int    `yaml:"creatorIndex" mapstructure:"creatorIndex"`
}

// EventRule parses the hex fields and builds the scanner rule.
func (c *RuleCfg) EventRule() (scan.EventRule, error) {
	rule := scan.EventRule{
		Name:              c.Name,
		TokenIndex:        c.TokenIndex,
		BondingCurveIndex: c.BondingCurveIndex,
		CreatorIndex:      c.CreatorIndex,
	}
	if c.Name == "" {
		return rule, errors.New("rule name cannot be empty")
	}
	if c.TokenIndex < 0 || c.BondingCurveIndex < 0 || c.CreatorIndex < 0 {
		return rule, errors.Errorf("rule '%s': account indices cannot be negative", c.Name)
	}

	program, err := hex.DecodeString(c.Program)
	if err != nil || len(program) != len(rule.Program) {
		return rule, errors.Errorf("rule '%s': program must be %d hex bytes", c.Name, len(rule.Program))
	}
	copy(rule.Program[:], program)

	disc, err := hex.DecodeString(c.Discriminator)
	if err != nil || len(disc) != len(rule.Discriminator) {
		return rule, errors.Errorf("rule '%s': discriminator must be %d hex bytes", c.Name, len(rule.Discriminator))
	}
	copy(rule.Discriminator[:], disc)

	return rule, nil
}

// PipelineCfg tunes the ingest pipeline.
type PipelineCfg struct {
	// QueueSize is the datagram channel depth between transports and the
	// worker. Default 8192.
	QueueSize int `yaml:"queueSize" mapstructure:"queueSize"`
	// MaxPending caps concurrently pending message ids. Default 1024.
	MaxPending int `yaml:"maxPending" mapstructure:"maxPending"`
	// StaleAfterMS is the age past which incomplete messages are
	// evicted. Default 2000.
	StaleAfterMS int `yaml:"staleAfterMS" mapstructure:"staleAfterMS"`
	// EvictIntervalMS is how often the eviction tick runs. Default 500.
	EvictIntervalMS int `yaml:"evictIntervalMS" mapstructure:"evictIntervalMS"`
	// StatsIntervalSec is the period of the stats log line. Default 15.
	StatsIntervalSec int `yaml:"statsIntervalSec" mapstructure:"statsIntervalSec"`
}

// ApplyDefaults fills zero fields with their defaults.
func (c *PipelineCfg) ApplyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 8192
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 1024
	}
	if c.StaleAfterMS <= 0 {
		c.StaleAfterMS = 2000
	}
	if c.EvictIntervalMS <= 0 {
		c.EvictIntervalMS = 500
	}
	if c.StatsIntervalSec <= 0 {
		c.StatsIntervalSec = 15
	}
}

// Config is the full process configuration.
type Config struct {
	Log      log.LogCfg     `yaml:"log"`
	Pipeline PipelineCfg    `yaml:"pipeline"`
	Rules    []RuleCfg      `yaml:"rules"`
	Plugin   map[string]any `yaml:"plugin"`
	// LockFile, when set, is flocked at startup so only one ingester
	// consumes the feed on a host.
	LockFile string `yaml:"lockFile"`
}

// Default returns the shipped configuration: pumpfun CREATE rule, UDP
// ingest on :8001, detections to the log reporter.
func Default() *Config {
	return &Config{
		Log: log.LogCfg{
			LogLevel:        log.InfoLevel,
			FileSplitMB:     50,
			ConsoleAppender: true,
			CallerSkip:      1,
		},
		Rules: []RuleCfg{
			{
				Name:              "pumpfun_create",
				Program:           DefaultProgramHex,
				Discriminator:     DefaultDiscriminatorHex,
				TokenIndex:        0,
				BondingCurveIndex: 2,
				CreatorIndex:      7,
			},
		},
		Plugin: map[string]any{
			"transport": map[string]any{
				"udp_transport": map[string]any{
					"addr": "0.0.0.0:8001",
				},
			},
			"reporter": map[string]any{
				"log_reporter": map[string]any{},
			},
		},
	}
}

// Load reads a YAML config file. An empty path yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.Pipeline.ApplyDefaults()
		return cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config '%s'", path)
	}

	// A file replaces the default rules and plugin wiring wholesale.
	cfg = &Config{Log: Default().Log}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config '%s'", path)
	}
	cfg.Pipeline.ApplyDefaults()
	return cfg, nil
}

// LoadFromEnv resolves the config path from SHREDSCAN_CONFIG (the given
// path wins when non-empty) and applies SHREDSCAN_ADDR on top.
func LoadFromEnv(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if addr := os.Getenv(EnvListenAddr); addr != "" {
		cfg.SetTransportAddr("udp_transport", addr)
	}
	return cfg, nil
}

// EventRules parses every configured rule.
func (c *Config) EventRules() ([]scan.EventRule, error) {
	rules := make([]scan.EventRule, 0, len(c.Rules))
	for i := range c.Rules {
		rule, err := c.Rules[i].EventRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SetTransportAddr overrides the addr of one transport plugin entry,
// creating the entry when absent.
func (c *Config) SetTransportAddr(name, addr string) {
	if c.Plugin == nil {
		c.Plugin = map[string]any{}
	}
	transports, ok := c.Plugin["transport"].(map[string]any)
	if !ok {
		transports = map[string]any{}
		c.Plugin["transport"] = transports
	}
	entry, ok := transports[name].(map[string]any)
	if !ok {
		entry = map[string]any{}
		transports[name] = entry
	}
	entry["addr"] = addr
}
