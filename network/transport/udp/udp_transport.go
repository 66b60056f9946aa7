// Package udp implements the primary ingest transport: a UDP socket
// whose datagrams are delivered straight to the pipeline, one datagram
// per logical unit on the wire.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/network/transport"
)

// UDPTransportCfg holds the configuration for a UDPTransport instance.
type UDPTransportCfg struct {
	Tag             string `mapstructure:"tag" yaml:"tag"`                         // Identifier for this transport instance.
	Addr            string `mapstructure:"addr" yaml:"addr"`                       // Listen address, e.g. "0.0.0.0:8001".
	ReadBufferBytes int    `mapstructure:"readBufferBytes" yaml:"readBufferBytes"` // Kernel receive buffer size; 0 keeps the OS default.
	RecvPerSec      int    `mapstructure:"recvPerSec" yaml:"recvPerSec"`           // Datagram intake rate limit; 0 disables limiting.
	RecvBurst       int    `mapstructure:"recvBurst" yaml:"recvBurst"`             // Burst allowance for the rate limiter.
}

// GetName returns the configuration key for UDPTransportCfg.
func (c *UDPTransportCfg) GetName() string {
	return "udp_transport"
}

// Validate checks the configuration.
func (c *UDPTransportCfg) Validate() error {
	if c.Addr == "" {
		return errors.New("Addr cannot be empty")
	}
	if c.RecvPerSec < 0 || c.RecvBurst < 0 {
		return errors.New("rate limit values cannot be negative")
	}
	return nil
}

// UDPTransport implements transport.Transport over a single UDP socket.
type UDPTransport struct {
	*UDPTransportCfg
	receiver transport.DatagramReceiver
	conn     net.PacketConn
	limiter  *rate.Limiter
	cancel   context.CancelFunc
	stopped  atomic.Bool
}

// NewUDPTransport creates a UDPTransport from cfg.
func NewUDPTransport(cfg *UDPTransportCfg) (*UDPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid UDPTransportCfg: %w", err)
	}
	if cfg.Tag == "" {
		cfg.Tag = "udp"
	}
	t := &UDPTransport{UDPTransportCfg: cfg}
	if cfg.RecvPerSec > 0 {
		burst := cfg.RecvBurst
		if burst <= 0 {
			burst = cfg.RecvPerSec
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RecvPerSec), burst)
	}
	return t, nil
}

// FactoryName identifies this plugin instance.
func (t *UDPTransport) FactoryName() string {
	return "udp_transport"
}

// Start binds the socket and launches the read loop.
func (t *UDPTransport) Start(opt transport.TransportOption) error {
	if opt.Handler == nil {
		return errors.New("transport handler is nil")
	}
	t.receiver = opt.Handler

	conn, err := net.ListenPacket("udp", t.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address '%s': %w", t.Addr, err)
	}
	if t.ReadBufferBytes > 0 {
		if uc, ok := conn.(*net.UDPConn); ok {
			if err := uc.SetReadBuffer(t.ReadBufferBytes); err != nil {
				log.Warn().Err(err).Int("bytes", t.ReadBufferBytes).Msg("failed to set kernel read buffer")
			}
		}
	}
	t.conn = conn

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	go t.serve(ctx)

	log.Info().Str("tag", t.Tag).Str("address", conn.LocalAddr().String()).Msg("udp transport listening")
	return nil
}

// StopRecv marks the transport as draining: received datagrams are
// dropped without delivery while the socket stays open.
func (t *UDPTransport) StopRecv() error {
	t.stopped.Store(true)
	return nil
}

// Stop closes the socket and ends the read loop.
func (t *UDPTransport) Stop() error {
	t.stopped.Store(true)
	if t.cancel != nil {
		t.cancel()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// serve is the read loop. Each datagram lands in a pooled buffer that
// the receiver releases when it is done with the payload.
func (t *UDPTransport) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		buf := transport.GetRecvBuf()
		_ = t.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, src, err := t.conn.ReadFrom(*buf)
		if err != nil {
			transport.PutRecvBuf(buf)
			if opErr, ok := err.(net.Error); ok && opErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error().Err(err).Msg("udp read failed")
			continue
		}

		if t.stopped.Load() || (t.limiter != nil && !t.limiter.Allow()) {
			transport.PutRecvBuf(buf)
			continue
		}

		metrics.IncrCounterWithDimGroup(metrics.NameIngestDatagramTotal, metrics.GroupShredscan,
			1, metrics.Dimension{metrics.DimTransport: t.Tag})

		dg := transport.NewDatagram((*buf)[:n], src, t.Tag, func() {
			transport.PutRecvBuf(buf)
		})
		if err := t.receiver.OnRecvDatagram(dg); err != nil {
			log.Debug().Err(err).Str("tag", t.Tag).Msg("datagram dropped by receiver")
		}
	}
}
