// Package tcp implements an ingest transport over plain TCP for feeds
// delivered through tunnels or proxies that cannot carry UDP. The byte
// stream is cut back into datagrams with a 4-byte little-endian length
// prefix per frame, the same framing the KCP transport uses.
package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/network/transport"
)

// FrameHeadSize is the length prefix size preceding each datagram.
const FrameHeadSize = 4

// TCPTransportCfg holds the configuration for a TCPTransport instance.
type TCPTransportCfg struct {
	Tag          string `mapstructure:"tag" yaml:"tag"`                   // Identifier for this transport instance.
	Addr         string `mapstructure:"addr" yaml:"addr"`                 // Listen address, e.g. "0.0.0.0:8003".
	IdleTimeout  uint32 `mapstructure:"idleTimeout" yaml:"idleTimeout"`   // Seconds a connection may sit idle before it is closed.
	MaxFrameSize int    `mapstructure:"maxFrameSize" yaml:"maxFrameSize"` // Upper bound on one framed datagram.
}

// GetName returns the configuration key for TCPTransportCfg.
func (c *TCPTransportCfg) GetName() string {
	return "tcp_transport"
}

// Validate checks the configuration. MaxFrameSize may not exceed the
// pooled receive buffer size.
func (c *TCPTransportCfg) Validate() error {
	if c.Addr == "" {
		return errors.New("Addr cannot be empty")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("MaxFrameSize must be positive")
	}
	if c.MaxFrameSize > transport.MaxDatagramSize {
		return fmt.Errorf("MaxFrameSize %d exceeds datagram limit %d", c.MaxFrameSize, transport.MaxDatagramSize)
	}
	return nil
}

// TCPTransport implements transport.Transport over TCP connections.
// Each accepted connection gets its own read goroutine.
type TCPTransport struct {
	*TCPTransportCfg
	receiver transport.DatagramReceiver
	listener *net.TCPListener
	cancel   context.CancelFunc
	stopped  atomic.Bool
	conns    sync.WaitGroup
}

// NewTCPTransport creates a TCPTransport from cfg.
func NewTCPTransport(cfg *TCPTransportCfg) (*TCPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid TCPTransportCfg: %w", err)
	}
	if cfg.Tag == "" {
		cfg.Tag = "tcp"
	}
	return &TCPTransport{TCPTransportCfg: cfg}, nil
}

// FactoryName identifies this plugin instance.
func (t *TCPTransport) FactoryName() string {
	return "tcp_transport"
}

// Start binds the listener and launches the accept loop.
func (t *TCPTransport) Start(opt transport.TransportOption) error {
	if opt.Handler == nil {
		return errors.New("transport handler is nil")
	}
	t.receiver = opt.Handler

	tcpAddr, err := net.ResolveTCPAddr("tcp", t.Addr)
	if err != nil {
		return fmt.Errorf("failed to resolve TCP address '%s': %w", t.Addr, err)
	}
	listener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on TCP address '%s': %w", t.Addr, err)
	}
	t.listener = listener

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	go t.serve(ctx)

	log.Info().Str("tag", t.Tag).Str("address", listener.Addr().String()).Msg("tcp transport listening")
	return nil
}

// StopRecv marks the transport as draining: frames are still read off
// connections but dropped without delivery.
func (t *TCPTransport) StopRecv() error {
	t.stopped.Store(true)
	return nil
}

// Stop closes the listener and waits for connection goroutines to exit.
func (t *TCPTransport) Stop() error {
	t.stopped.Store(true)
	if t.cancel != nil {
		t.cancel()
	}
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.conns.Wait()
	return err
}

// serve accepts connections until the listener closes. A deadline on
// accept keeps the loop responsive to context cancellation.
func (t *TCPTransport) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = t.listener.SetDeadline(time.Now().Add(time.Second))
		conn, err := t.listener.AcceptTCP()
		if err != nil {
			if opErr, ok := err.(net.Error); ok && opErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error().Err(err).Msg("tcp accept failed")
			return
		}
		_ = conn.SetNoDelay(true)

		t.conns.Add(1)
		go t.serveConn(ctx, conn)
	}
}

// serveConn reads length-prefixed frames off one connection until it
// closes or goes idle.
func (t *TCPTransport) serveConn(ctx context.Context, conn *net.TCPConn) {
	defer t.conns.Done()
	defer func() { _ = conn.Close() }()

	log.Info().Str("tag", t.Tag).Str("remote", conn.RemoteAddr().String()).Msg("tcp connection opened")

	head := make([]byte, FrameHeadSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t.setReadDeadline(conn)
		if _, err := io.ReadFull(conn, head); err != nil {
			t.logConnEnd(conn, err)
			return
		}

		frameLen := int(binary.LittleEndian.Uint32(head))
		if frameLen <= 0 || frameLen > t.MaxFrameSize {
			log.Error().Int("len", frameLen).Int("max", t.MaxFrameSize).
				Str("remote", conn.RemoteAddr().String()).Msg("tcp frame length out of range")
			return
		}

		buf := transport.GetRecvBuf()
		t.setReadDeadline(conn)
		if _, err := io.ReadFull(conn, (*buf)[:frameLen]); err != nil {
			transport.PutRecvBuf(buf)
			t.logConnEnd(conn, err)
			return
		}

		if t.stopped.Load() {
			transport.PutRecvBuf(buf)
			continue
		}

		metrics.IncrCounterWithDimGroup(metrics.NameIngestDatagramTotal, metrics.GroupShredscan,
			1, metrics.Dimension{metrics.DimTransport: t.Tag})

		dg := transport.NewDatagram((*buf)[:frameLen], conn.RemoteAddr(), t.Tag, func() {
			transport.PutRecvBuf(buf)
		})
		if err := t.receiver.OnRecvDatagram(dg); err != nil {
			log.Debug().Err(err).Str("tag", t.Tag).Msg("datagram dropped by receiver")
		}
	}
}

func (t *TCPTransport) setReadDeadline(conn *net.TCPConn) {
	if t.IdleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(time.Duration(t.IdleTimeout) * time.Second))
	}
}

func (t *TCPTransport) logConnEnd(conn *net.TCPConn, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("tcp connection closed")
		return
	}
	log.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("tcp connection read failed")
}

// WriteFrame writes one length-prefixed datagram to w.
func WriteFrame(w io.Writer, payload []byte) error {
	head := make([]byte, FrameHeadSize)
	binary.LittleEndian.PutUint32(head, uint32(len(payload)))
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
