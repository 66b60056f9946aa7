package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/ledger"
	"github.com/solwatch/shredscan/scan"
)

func testDetection() *scan.Detection {
	var token, curve, creator ledger.Pubkey
	token[0] = 0x01
	curve[0] = 0x02
	creator[0] = 0x03
	return &scan.Detection{
		Rule:         "pumpfun_create",
		Token:        token,
		BondingCurve: curve,
		Creator:      creator,
		Seq:          99,
		EntryCount:   2,
		TxCount:      5,
	}
}

func TestEncodeDetection(t *testing.T) {
	buf, err := EncodeDetection(testDetection())
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(buf, &rec))
	assert.Equal(t, "pumpfun_create", rec.Rule)
	assert.Equal(t, "01", rec.Token[:2])
	assert.Len(t, rec.Token, 64)
	assert.Equal(t, uint64(99), rec.Seq)
	assert.Equal(t, 5, rec.TxCount)
	assert.NotZero(t, rec.DetectedAt)
}

type fakeReporter struct {
	name   string
	err    error
	calls  int
	closed bool
}

func (f *fakeReporter) Name() string { return f.name }

func (f *fakeReporter) Report(context.Context, *scan.Detection) error {
	f.calls++
	return f.err
}

func (f *fakeReporter) Close() error {
	f.closed = true
	return f.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	a := &fakeReporter{name: "a"}
	b := &fakeReporter{name: "b", err: errors.New("sink down")}
	c := &fakeReporter{name: "c"}

	f := NewFanout()
	f.Add(a)
	f.Add(b)
	f.Add(c)
	require.Equal(t, 3, f.Len())

	// The failing middle sink must not stop the others.
	f.Report(context.Background(), testDetection())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)

	err := f.Close()
	assert.Error(t, err)
	assert.True(t, a.closed)
	assert.True(t, c.closed)
}

func TestLogReporter(t *testing.T) {
	r := NewLogReporter()
	assert.Equal(t, "log", r.Name())
	assert.NoError(t, r.Report(context.Background(), testDetection()))
	assert.NoError(t, r.Close())
}
