package reassembly

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/network/shred"
)

// frag builds one fragment datagram by hand so tests can craft headers
// Split would never produce.
func frag(msgID uint32, index, count uint16, totalSize uint32, payload []byte) []byte {
	buf := shred.EncodeHeader(&shred.FragmentHeader{
		MessageID:     msgID,
		FragmentIndex: index,
		FragmentCount: count,
		TotalSize:     totalSize,
	})
	return append(buf, payload...)
}

func TestPassthroughDatagram(t *testing.T) {
	r := New(16)

	payload := []byte("plain datagram without a header")
	res, err := r.Accept(payload)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.False(t, res.Fragmented)
	assert.Equal(t, payload, res.Payload)
	assert.Zero(t, r.PendingCount())
}

func TestReassembleOutOfOrder(t *testing.T) {
	r := New(16)

	a, b, c := []byte("alpha-"), []byte("bravo-"), []byte("charlie")
	total := uint32(len(a) + len(b) + len(c))

	res, err := r.Accept(frag(7, 2, 3, total, c))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)

	res, err = r.Accept(frag(7, 0, 3, total, a))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 1, r.PendingCount())

	res, err = r.Accept(frag(7, 1, 3, total, b))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.True(t, res.Fragmented)
	assert.Equal(t, uint32(7), res.MessageID)
	assert.Equal(t, []byte("alpha-bravo-charlie"), res.Payload)
	assert.Zero(t, r.PendingCount())
}

func TestSingleFragmentCompletesImmediately(t *testing.T) {
	r := New(16)

	res, err := r.Accept(frag(1, 0, 1, 4, []byte("solo")))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("solo"), res.Payload)
	assert.Zero(t, r.PendingCount())
}

func TestSplitRoundTripThroughReassembler(t *testing.T) {
	r := New(16)

	payload := bytes.Repeat([]byte("shredscan"), 500)
	frags, err := shred.Split(99, payload, 1200)
	require.NoError(t, err)
	require.Greater(t, len(frags), 1)

	var final *Result
	for _, f := range frags {
		final, err = r.Accept(f)
		require.NoError(t, err)
	}
	require.Equal(t, StatusReady, final.Status)
	assert.Equal(t, payload, final.Payload)
}

func TestDuplicateFragmentOverwrites(t *testing.T) {
	r := New(16)

	_, err := r.Accept(frag(5, 0, 2, 8, []byte("old0")))
	require.NoError(t, err)

	// Same index again with different bytes: slot is replaced, the
	// message must not complete from the duplicate alone.
	res, err := r.Accept(frag(5, 0, 2, 8, []byte("new0")))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 1, r.PendingCount())

	res, err = r.Accept(frag(5, 1, 2, 8, []byte("tail")))
	require.NoError(t, err)
	require.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("new0tail"), res.Payload)
}

func TestRejectIndexOutOfRange(t *testing.T) {
	r := New(16)

	_, err := r.Accept(frag(3, 2, 2, 10, []byte("x")))
	assert.Error(t, err)
	assert.Zero(t, r.PendingCount())

	// Zero count is never valid; index 0 is already out of range.
	_, err = r.Accept(frag(3, 0, 0, 10, []byte("x")))
	assert.Error(t, err)
}

func TestRejectTruncatedHeader(t *testing.T) {
	r := New(16)

	_, err := r.Accept([]byte("SHRD short"))
	assert.Error(t, err)
}

func TestMetadataMismatchKeepsPending(t *testing.T) {
	r := New(16)

	_, err := r.Accept(frag(9, 0, 2, 8, []byte("head")))
	require.NoError(t, err)

	// Conflicting count rejects the datagram only.
	_, err = r.Accept(frag(9, 1, 3, 8, []byte("bad")))
	assert.Error(t, err)
	assert.Equal(t, 1, r.PendingCount())

	// Conflicting total size likewise.
	_, err = r.Accept(frag(9, 1, 2, 999, []byte("bad")))
	assert.Error(t, err)
	assert.Equal(t, 1, r.PendingCount())

	// The original message still completes with matching metadata.
	res, err := r.Accept(frag(9, 1, 2, 8, []byte("tail")))
	require.NoError(t, err)
	require.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("headtail"), res.Payload)
}

func TestSizeMismatchDiscardsMessage(t *testing.T) {
	r := New(16)

	// Both fragments claim 100 bytes total but deliver 8.
	_, err := r.Accept(frag(11, 0, 2, 100, []byte("head")))
	require.NoError(t, err)
	_, err = r.Accept(frag(11, 1, 2, 100, []byte("tail")))
	assert.Error(t, err)
	assert.Zero(t, r.PendingCount(), "failed message must not linger")

	// The id is reusable afterwards.
	res, err := r.Accept(frag(11, 0, 1, 2, []byte("ok")))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("ok"), res.Payload)
}

func TestEvictStale(t *testing.T) {
	r := New(16)
	base := time.Now()
	r.now = func() time.Time { return base }

	_, err := r.Accept(frag(1, 0, 2, 8, []byte("old ")))
	require.NoError(t, err)

	r.now = func() time.Time { return base.Add(3 * time.Second) }
	_, err = r.Accept(frag(2, 0, 2, 8, []byte("new ")))
	require.NoError(t, err)

	// Only the first message is past the age limit.
	n := r.EvictStale(base.Add(4*time.Second), 2*time.Second)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.PendingCount())

	// The evicted id starts fresh; a late second fragment alone cannot
	// complete it.
	res, err := r.Accept(frag(1, 1, 2, 8, []byte("late")))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
}

func TestCapacityEvictsOldest(t *testing.T) {
	r := New(2)
	base := time.Now()
	clock := base
	r.now = func() time.Time { return clock }

	_, err := r.Accept(frag(1, 0, 2, 8, []byte("one ")))
	require.NoError(t, err)

	clock = base.Add(time.Second)
	_, err = r.Accept(frag(2, 0, 2, 8, []byte("two ")))
	require.NoError(t, err)
	assert.Equal(t, 2, r.PendingCount())

	// A third id pushes out the oldest pending message, id 1.
	clock = base.Add(2 * time.Second)
	_, err = r.Accept(frag(3, 0, 2, 8, []byte("tri ")))
	require.NoError(t, err)
	assert.Equal(t, 2, r.PendingCount())

	// Id 2 survived and still completes.
	res, err := r.Accept(frag(2, 1, 2, 8, []byte("more")))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("two more"), res.Payload)

	// Id 1 was dropped: its second fragment opens a new pending message.
	res, err = r.Accept(frag(1, 1, 2, 8, []byte("late")))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
}

func TestInterleavedMessages(t *testing.T) {
	r := New(16)

	_, err := r.Accept(frag(20, 0, 2, 6, []byte("aaa")))
	require.NoError(t, err)
	_, err = r.Accept(frag(21, 0, 2, 6, []byte("xxx")))
	require.NoError(t, err)

	res, err := r.Accept(frag(21, 1, 2, 6, []byte("yyy")))
	require.NoError(t, err)
	require.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("xxxyyy"), res.Payload)

	res, err = r.Accept(frag(20, 1, 2, 6, []byte("bbb")))
	require.NoError(t, err)
	require.Equal(t, StatusReady, res.Status)
	assert.Equal(t, []byte("aaabbb"), res.Payload)
	assert.Zero(t, r.PendingCount())
}
