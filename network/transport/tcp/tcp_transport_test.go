package tcp

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/network/transport"
)

type captureReceiver struct {
	mu  sync.Mutex
	got [][]byte
}

func (c *captureReceiver) OnRecvDatagram(dg *transport.Datagram) error {
	c.mu.Lock()
	payload := make([]byte, len(dg.Payload))
	copy(payload, dg.Payload)
	c.got = append(c.got, payload)
	c.mu.Unlock()
	dg.Release()
	return nil
}

func (c *captureReceiver) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.got))
	copy(out, c.got)
	return out
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestTCPTransportDeliversFrames(t *testing.T) {
	tr, err := NewTCPTransport(&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: 1 << 16})
	require.NoError(t, err)

	recv := &captureReceiver{}
	require.NoError(t, tr.Start(transport.TransportOption{Handler: recv}))
	t.Cleanup(func() { _ = tr.Stop() })

	conn, err := net.Dial("tcp", tr.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, WriteFrame(conn, []byte("first frame")))
	require.NoError(t, WriteFrame(conn, []byte("second")))

	require.True(t, waitFor(t, func() bool { return len(recv.snapshot()) == 2 }))
	got := recv.snapshot()
	assert.Equal(t, []byte("first frame"), got[0])
	assert.Equal(t, []byte("second"), got[1])
}

func TestTCPTransportRejectsOversizedFrame(t *testing.T) {
	tr, err := NewTCPTransport(&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: 8})
	require.NoError(t, err)

	recv := &captureReceiver{}
	require.NoError(t, tr.Start(transport.TransportOption{Handler: recv}))
	t.Cleanup(func() { _ = tr.Stop() })

	conn, err := net.Dial("tcp", tr.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Frame beyond the limit: the connection is dropped, nothing delivered.
	require.NoError(t, WriteFrame(conn, []byte("way past the eight byte cap")))

	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, rerr := conn.Read(buf)
	assert.Error(t, rerr, "server should close the connection")
	assert.Empty(t, recv.snapshot())
}

func TestTCPTransportCfgValidate(t *testing.T) {
	assert.Error(t, (&TCPTransportCfg{MaxFrameSize: 64}).Validate())
	assert.Error(t, (&TCPTransportCfg{Addr: "x"}).Validate())
	assert.Error(t, (&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: transport.MaxDatagramSize + 1}).Validate())
	assert.NoError(t, (&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: transport.MaxDatagramSize}).Validate())
	assert.NoError(t, (&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: 64}).Validate())
}

func TestTCPTransportFrameLargerThanRecvBuf(t *testing.T) {
	// A configured limit past the receive buffer size is rejected outright.
	_, err := NewTCPTransport(&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: 100000})
	require.Error(t, err)

	// At the full limit, a prefix claiming more than the buffer holds must
	// drop the connection, not the process.
	tr, err := NewTCPTransport(&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: transport.MaxDatagramSize})
	require.NoError(t, err)

	recv := &captureReceiver{}
	require.NoError(t, tr.Start(transport.TransportOption{Handler: recv}))
	t.Cleanup(func() { _ = tr.Stop() })

	conn, err := net.Dial("tcp", tr.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	head := make([]byte, FrameHeadSize)
	binary.LittleEndian.PutUint32(head, 70000)
	_, err = conn.Write(head)
	require.NoError(t, err)

	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, rerr := conn.Read(buf)
	assert.Error(t, rerr, "server should close the connection")
	assert.Empty(t, recv.snapshot())
}

func TestTCPTransportStartWithoutHandler(t *testing.T) {
	tr, err := NewTCPTransport(&TCPTransportCfg{Addr: "127.0.0.1:0", MaxFrameSize: 64})
	require.NoError(t, err)
	assert.Error(t, tr.Start(transport.TransportOption{}))
}
