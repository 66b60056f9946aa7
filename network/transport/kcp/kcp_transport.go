// Package kcp implements a secondary ingest transport over KCP sessions.
// KCP gives feed relays a retransmitting path through lossy links; the
// session byte stream is cut back into datagrams with a 4-byte
// little-endian length prefix per frame.
package kcp

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

	kcpgo "github.com/xtaci/kcp-go/v5"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/network/transport"
)

// FrameHeadSize is the length prefix size preceding each datagram on a
// KCP session.
const FrameHeadSize = 4

// KCPTransportCfg holds the configuration for a KCPTransport instance.
type KCPTransportCfg struct {
	Tag          string `mapstructure:"tag" yaml:"tag"`                   // Identifier for this transport instance.
	Addr         string `mapstructure:"addr" yaml:"addr"`                 // Listen address, e.g. "0.0.0.0:8002".
	IdleTimeout  uint32 `mapstructure:"idleTimeout" yaml:"idleTimeout"`   // Seconds a session may sit idle before it is closed.
	MaxFrameSize int    `mapstructure:"maxFrameSize" yaml:"maxFrameSize"` // Upper bound on one framed datagram.
}

// GetName returns the configuration key for KCPTransportCfg.
func (c *KCPTransportCfg) GetName() string {
	return "kcp_transport"
}

// Validate checks the configuration. MaxFrameSize may not exceed the
// pooled receive buffer size.
func (c *KCPTransportCfg) Validate() error {
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

// KCPTransport implements transport.Transport over KCP sessions. Each
// accepted session gets its own read goroutine.
type KCPTransport struct {
	*KCPTransportCfg
	receiver transport.DatagramReceiver
	listener *kcpgo.Listener
	cancel   context.CancelFunc
	stopped  atomic.Bool
	sessions sync.WaitGroup
}

// NewKCPTransport creates a KCPTransport from cfg.
func NewKCPTransport(cfg *KCPTransportCfg) (*KCPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid KCPTransportCfg: %w", err)
	}
	if cfg.Tag == "" {
		cfg.Tag = "kcp"
	}
	return &KCPTransport{KCPTransportCfg: cfg}, nil
}

// FactoryName identifies this plugin instance.
func (t *KCPTransport) FactoryName() string {
	return "kcp_transport"
}

// Start binds the listener and launches the accept loop.
func (t *KCPTransport) Start(opt transport.TransportOption) error {
	if opt.Handler == nil {
		return errors.New("transport handler is nil")
	}
	t.receiver = opt.Handler

	listener, err := kcpgo.ListenWithOptions(t.Addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to listen on KCP address '%s': %w", t.Addr, err)
	}
	t.listener = listener

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	go t.serve(ctx)

	log.Info().Str("tag", t.Tag).Str("address", listener.Addr().String()).Msg("kcp transport listening")
	return nil
}

// StopRecv marks the transport as draining: framed datagrams are still
// read off sessions but dropped without delivery.
func (t *KCPTransport) StopRecv() error {
	t.stopped.Store(true)
	return nil
}

// Stop closes the listener and waits for session goroutines to exit.
func (t *KCPTransport) Stop() error {
	t.stopped.Store(true)
	if t.cancel != nil {
		t.cancel()
	}
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.sessions.Wait()
	return err
}

func (t *KCPTransport) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sess, err := t.listener.AcceptKCP()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("kcp accept failed")
			return
		}
		// Fast-mode tuning for low latency feeds.
		sess.SetNoDelay(1, 10, 2, 1)
		sess.SetStreamMode(true)

		t.sessions.Add(1)
		go t.serveSession(ctx, sess)
	}
}

// serveSession reads length-prefixed frames off one session until it
// closes or goes idle.
func (t *KCPTransport) serveSession(ctx context.Context, sess *kcpgo.UDPSession) {
	defer t.sessions.Done()
	defer func() { _ = sess.Close() }()

	log.Info().Str("tag", t.Tag).Str("remote", sess.RemoteAddr().String()).Msg("kcp session opened")

	head := make([]byte, FrameHeadSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t.setReadDeadline(sess)
		if _, err := io.ReadFull(sess, head); err != nil {
			t.logSessionEnd(sess, err)
			return
		}

		frameLen := int(binary.LittleEndian.Uint32(head))
		if frameLen <= 0 || frameLen > t.MaxFrameSize {
			log.Error().Int("len", frameLen).Int("max", t.MaxFrameSize).
				Str("remote", sess.RemoteAddr().String()).Msg("kcp frame length out of range")
			return
		}

		buf := transport.GetRecvBuf()
		t.setReadDeadline(sess)
		if _, err := io.ReadFull(sess, (*buf)[:frameLen]); err != nil {
			transport.PutRecvBuf(buf)
			t.logSessionEnd(sess, err)
			return
		}

		if t.stopped.Load() {
			transport.PutRecvBuf(buf)
			continue
		}

		metrics.IncrCounterWithDimGroup(metrics.NameIngestDatagramTotal, metrics.GroupShredscan,
			1, metrics.Dimension{metrics.DimTransport: t.Tag})

		dg := transport.NewDatagram((*buf)[:frameLen], sess.RemoteAddr(), t.Tag, func() {
			transport.PutRecvBuf(buf)
		})
		if err := t.receiver.OnRecvDatagram(dg); err != nil {
			log.Debug().Err(err).Str("tag", t.Tag).Msg("datagram dropped by receiver")
		}
	}
}

func (t *KCPTransport) setReadDeadline(sess *kcpgo.UDPSession) {
	if t.IdleTimeout > 0 {
		_ = sess.SetReadDeadline(time.Now().Add(time.Duration(t.IdleTimeout) * time.Second))
	}
}

func (t *KCPTransport) logSessionEnd(sess *kcpgo.UDPSession, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		log.Info().Str("remote", sess.RemoteAddr().String()).Msg("kcp session closed")
		return
	}
	log.Error().Err(err).Str("remote", sess.RemoteAddr().String()).Msg("kcp session read failed")
}

// WriteFrame writes one length-prefixed datagram to w. Feed relays use
// it to frame payloads onto a KCP session.
func WriteFrame(w io.Writer, payload []byte) error {
	head := make([]byte, FrameHeadSize)
	binary.LittleEndian.PutUint32(head, uint32(len(payload)))
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
