package transport

import (
	"github.com/solwatch/shredscan/utils/pool"
)

// MaxDatagramSize is the receive buffer size handed to transport read
// loops. Large enough for any UDP datagram.
const MaxDatagramSize = 65536

// _recvBufPool recycles receive buffers across datagrams.
var _recvBufPool = pool.NewPool("recvbufpool", func() any {
	buf := make([]byte, MaxDatagramSize)
	return &buf
})

// GetRecvBuf fetches a MaxDatagramSize receive buffer.
func GetRecvBuf() *[]byte {
	buf, ok := _recvBufPool.Get().(*[]byte)
	if !ok || buf == nil {
		b := make([]byte, MaxDatagramSize)
		return &b
	}
	return buf
}

// PutRecvBuf returns a receive buffer to the pool.
func PutRecvBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	_recvBufPool.Put(buf)
}
