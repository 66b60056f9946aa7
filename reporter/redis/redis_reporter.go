// Package redis delivers detections to a redis list and pub-sub channel
// so downstream trading services can consume them either way.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/reporter"
	"github.com/solwatch/shredscan/scan"
)

// RedisReporterCfg holds the configuration for a RedisReporter.
type RedisReporterCfg struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`             // Redis address, e.g. "127.0.0.1:6379".
	Password   string `mapstructure:"password" yaml:"password"`     // Optional AUTH password.
	DB         int    `mapstructure:"db" yaml:"db"`                 // Database index.
	ListKey    string `mapstructure:"listKey" yaml:"listKey"`       // List receiving RPUSHed records; empty disables.
	Channel    string `mapstructure:"channel" yaml:"channel"`       // Pub-sub channel for records; empty disables.
	ListMaxLen int64  `mapstructure:"listMaxLen" yaml:"listMaxLen"` // Cap on the list length; 0 keeps it unbounded.
	TimeoutMS  int    `mapstructure:"timeoutMS" yaml:"timeoutMS"`   // Per-delivery timeout; 0 uses 2000.
}

// Validate checks the configuration.
func (c *RedisReporterCfg) Validate() error {
	if c.Addr == "" {
		return errors.New("Addr cannot be empty")
	}
	if c.ListKey == "" && c.Channel == "" {
		return errors.New("at least one of ListKey and Channel must be set")
	}
	return nil
}

// RedisReporter implements reporter.Reporter over a redis client.
type RedisReporter struct {
	cfg     *RedisReporterCfg
	client  *goredis.Client
	timeout time.Duration
}

// NewRedisReporter creates a reporter and verifies connectivity with a
// ping so misconfiguration surfaces at startup, not at first detection.
func NewRedisReporter(cfg *RedisReporterCfg) (*RedisReporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid RedisReporterCfg: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed for '%s': %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Str("listKey", cfg.ListKey).Str("channel", cfg.Channel).Msg("redis reporter connected")
	return &RedisReporter{cfg: cfg, client: client, timeout: timeout}, nil
}

// Name implements reporter.Reporter.
func (r *RedisReporter) Name() string { return "redis" }

// FactoryName identifies this plugin instance.
func (r *RedisReporter) FactoryName() string { return "redis_reporter" }

// Report pushes the JSON record onto the configured list and channel.
func (r *RedisReporter) Report(ctx context.Context, det *scan.Detection) error {
	buf, err := reporter.EncodeDetection(det)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.cfg.ListKey != "" {
		pipe := r.client.TxPipeline()
		pipe.RPush(ctx, r.cfg.ListKey, buf)
		if r.cfg.ListMaxLen > 0 {
			pipe.LTrim(ctx, r.cfg.ListKey, -r.cfg.ListMaxLen, -1)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis rpush failed: %w", err)
		}
	}

	if r.cfg.Channel != "" {
		if err := r.client.Publish(ctx, r.cfg.Channel, buf).Err(); err != nil {
			return fmt.Errorf("redis publish failed: %w", err)
		}
	}
	return nil
}

// Close releases the client.
func (r *RedisReporter) Close() error {
	return r.client.Close()
}
