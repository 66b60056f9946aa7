// Package transport defines the contract between datagram sources and the
// ingest pipeline. A transport owns its sockets and read goroutines; it
// hands every received datagram to the configured receiver and its
// responsibility ends there.
package transport

import "net"

// Transport is the lifecycle interface every datagram source implements.
type Transport interface {
	// Start brings the transport online. It must be non-blocking; read
	// loops run on goroutines owned by the transport.
	Start(opt TransportOption) error

	// StopRecv stops accepting new datagrams without tearing down the
	// transport, so in-flight work can drain before Stop.
	StopRecv() error

	// Stop shuts the transport down completely and releases its sockets.
	Stop() error
}

// Datagram carries one received datagram up to the pipeline. Payload may
// alias a pooled buffer; the receiver owns the datagram until it calls
// Release.
type Datagram struct {
	Payload   []byte
	Source    net.Addr // Peer the datagram arrived from, nil if unknown.
	Transport string   // Tag of the transport that produced it.

	release func()
}

// NewDatagram wraps a payload with its buffer release hook. Transports
// with pooled receive buffers pass the hook; nil is fine otherwise.
func NewDatagram(payload []byte, source net.Addr, tag string, release func()) *Datagram {
	return &Datagram{Payload: payload, Source: source, Transport: tag, release: release}
}

// Release returns the underlying buffer to its pool. The payload must
// not be touched afterwards. Safe to call when no hook was set.
func (d *Datagram) Release() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

// DatagramReceiver sits above the transport layer and consumes datagrams.
// The ingest pipeline implements it.
type DatagramReceiver interface {
	// OnRecvDatagram is invoked on the transport's read goroutine for
	// each datagram. Implementations should hand off quickly; an error
	// return means the datagram was dropped, not that the transport
	// should stop.
	OnRecvDatagram(dg *Datagram) error
}

// TransportOption carries the dependencies a Transport needs to start.
type TransportOption struct {
	// Handler consumes received datagrams.
	Handler DatagramReceiver
}
