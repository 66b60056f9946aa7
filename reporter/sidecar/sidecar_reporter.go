package sidecar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/reporter"
	"github.com/solwatch/shredscan/scan"
)

// SidecarReporterCfg holds the configuration for a SidecarReporter.
type SidecarReporterCfg struct {
	SocketPath string `mapstructure:"socketPath" yaml:"socketPath"` // Path of the sidecar's unix socket.
	TimeoutMS  int    `mapstructure:"timeoutMS" yaml:"timeoutMS"`   // Per-write timeout; 0 uses 1000.
}

// Validate checks the configuration.
func (c *SidecarReporterCfg) Validate() error {
	if c.SocketPath == "" {
		return errors.New("SocketPath cannot be empty")
	}
	return nil
}

// SidecarReporter implements reporter.Reporter over a unix domain
// socket. The connection is lazy and re-established after write
// failures, so the sidecar may restart without taking the pipeline down.
type SidecarReporter struct {
	cfg     *SidecarReporterCfg
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// NewSidecarReporter creates a SidecarReporter from cfg. The socket is
// not dialed until the first detection.
func NewSidecarReporter(cfg *SidecarReporterCfg) (*SidecarReporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SidecarReporterCfg: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Second
	}
	return &SidecarReporter{cfg: cfg, timeout: timeout}, nil
}

// Name implements reporter.Reporter.
func (r *SidecarReporter) Name() string { return "sidecar" }

// FactoryName identifies this plugin instance.
func (r *SidecarReporter) FactoryName() string { return "sidecar_reporter" }

// Report frames the record and writes it to the socket, dialing or
// redialing as needed. One redial is attempted per detection.
func (r *SidecarReporter) Report(_ context.Context, det *scan.Detection) error {
	frame := EncodeFrame(MsgIDDetection, EncodeRecord(reporter.NewRecord(det)))

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writeLocked(frame); err != nil {
		r.closeLocked()
		if err := r.writeLocked(frame); err != nil {
			return err
		}
	}
	return nil
}

func (r *SidecarReporter) writeLocked(frame []byte) error {
	if r.conn == nil {
		conn, err := net.DialTimeout("unix", r.cfg.SocketPath, r.timeout)
		if err != nil {
			return fmt.Errorf("sidecar dial failed: %w", err)
		}
		r.conn = conn
		log.Info().Str("socket", r.cfg.SocketPath).Msg("sidecar reporter connected")
	}

	_ = r.conn.SetWriteDeadline(time.Now().Add(r.timeout))
	for n := 0; n < len(frame); {
		nn, err := r.conn.Write(frame[n:])
		if err != nil {
			return fmt.Errorf("sidecar write failed: %w", err)
		}
		n += nn
	}
	return nil
}

func (r *SidecarReporter) closeLocked() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

// Close shuts the socket down.
func (r *SidecarReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}
