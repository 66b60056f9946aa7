// Package pipeline runs the ingest loop: datagrams in, detections out.
// A single worker goroutine owns the reassembler and interleaves
// datagram processing with stale-message eviction and periodic stats, so
// none of the reassembly state needs locking.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/solwatch/shredscan/config"
	"github.com/solwatch/shredscan/event"
	"github.com/solwatch/shredscan/ledger"
	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/network/reassembly"
	"github.com/solwatch/shredscan/network/transport"
	"github.com/solwatch/shredscan/reporter"
	"github.com/solwatch/shredscan/scan"
)

// Stats is a snapshot of pipeline counters, published on the StreamStats
// topic with every periodic report.
type Stats struct {
	Datagrams  uint64 // Datagrams consumed from the queue.
	Dropped    uint64 // Datagrams dropped because the queue was full.
	Ready      uint64 // Completed payloads (reassembled or passthrough).
	Rejected   uint64 // Datagrams the reassembler rejected.
	DecodeFail uint64 // Completed payloads the decoder could not parse.
	Detections uint64 // Detections reported.
	Pending    int    // Incomplete messages currently buffered.
	Seq        uint64 // Last assigned batch sequence number.
}

// Pipeline is the ingest worker. It implements
// transport.DatagramReceiver; transports feed it concurrently while one
// goroutine drains the queue.
type Pipeline struct {
	cfg config.PipelineCfg

	in        chan *transport.Datagram
	reasm     *reassembly.Reassembler
	decoder   ledger.Decoder
	scanner   *scan.Scanner
	fanout    *reporter.Fanout
	publisher *event.Publisher

	seq     uint64
	stats   Stats
	dropped atomic.Uint64

	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

// New creates a Pipeline. The publisher may be nil when nothing listens
// for stats events.
func New(cfg config.PipelineCfg, decoder ledger.Decoder, scanner *scan.Scanner,
	fanout *reporter.Fanout, publisher *event.Publisher,
) *Pipeline {
	cfg.ApplyDefaults()
	return &Pipeline{
		cfg:       cfg,
		in:        make(chan *transport.Datagram, cfg.QueueSize),
		reasm:     reassembly.New(cfg.MaxPending),
		decoder:   decoder,
		scanner:   scanner,
		fanout:    fanout,
		publisher: publisher,
		done:      make(chan struct{}),
	}
}

// OnRecvDatagram implements transport.DatagramReceiver. It never blocks
// the transport read loop: when the queue is full the datagram is
// dropped and counted.
func (p *Pipeline) OnRecvDatagram(dg *transport.Datagram) error {
	select {
	case p.in <- dg:
		return nil
	default:
		dg.Release()
		p.dropped.Add(1)
		return errors.New("pipeline queue full")
	}
}

// Start launches the worker goroutine.
func (p *Pipeline) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	var ctx context.Context
	ctx, p.cancel = context.WithCancel(context.Background())
	go p.run(ctx)
	log.Info().Int("queueSize", p.cfg.QueueSize).Int("maxPending", p.cfg.MaxPending).Msg("pipeline started")
}

// Stop ends the worker and waits for it to drain the queue.
func (p *Pipeline) Stop() {
	if !p.started.Load() || p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	evictTicker := time.NewTicker(time.Duration(p.cfg.EvictIntervalMS) * time.Millisecond)
	defer evictTicker.Stop()
	statsTicker := time.NewTicker(time.Duration(p.cfg.StatsIntervalSec) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.reportStats()
			return
		case dg := <-p.in:
			p.process(dg)
		case <-evictTicker.C:
			p.reasm.EvictStale(time.Now(), time.Duration(p.cfg.StaleAfterMS)*time.Millisecond)
		case <-statsTicker.C:
			p.reportStats()
		}
	}
}

// drain processes whatever is already queued so a clean shutdown loses
// nothing that was delivered.
func (p *Pipeline) drain() {
	for {
		select {
		case dg := <-p.in:
			p.process(dg)
		default:
			return
		}
	}
}

func (p *Pipeline) process(dg *transport.Datagram) {
	defer dg.Release()
	p.stats.Datagrams++

	res, err := p.reasm.Accept(dg.Payload)
	if err != nil {
		p.stats.Rejected++
		log.Debug().Err(err).Str("transport", dg.Transport).Msg("datagram rejected")
		return
	}
	if res.Status != reassembly.StatusReady {
		return
	}
	p.stats.Ready++

	p.seq++
	entries, err := p.decoder.Decode(res.Payload)
	if err != nil {
		p.stats.DecodeFail++
		log.Warn().Err(err).Uint64("seq", p.seq).Int("bytes", len(res.Payload)).Msg("payload decode failed")
		return
	}

	for _, det := range p.scanner.Scan(p.seq, entries) {
		p.stats.Detections++
		d := det
		p.fanout.Report(context.Background(), &d)
	}
}

// Snapshot returns the current counters. Only consistent when called
// from the worker goroutine or after Stop.
func (p *Pipeline) Snapshot() Stats {
	s := p.stats
	s.Dropped = p.dropped.Load()
	s.Pending = p.reasm.PendingCount()
	s.Seq = p.seq
	return s
}

func (p *Pipeline) reportStats() {
	s := p.Snapshot()
	log.Info().
		Uint64("datagrams", s.Datagrams).
		Uint64("dropped", s.Dropped).
		Uint64("ready", s.Ready).
		Uint64("rejected", s.Rejected).
		Uint64("decodeFail", s.DecodeFail).
		Uint64("detections", s.Detections).
		Int("pending", s.Pending).
		Uint64("seq", s.Seq).
		Msg("stream stats")

	if p.publisher != nil {
		if err := p.publisher.Publish(event.StreamStats, s); err != nil {
			log.Debug().Err(err).Msg("stats publish skipped")
		}
	}
}
