package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMergeSum(t *testing.T) {
	m := &counter{name: "datagrams", group: GroupShredscan}
	a := Record{metrics: m, value: 3}
	b := Record{metrics: m, value: 4}

	require.NoError(t, a.Merge(b))
	assert.Equal(t, Value(7), a.Value())
}

func TestRecordMergeSet(t *testing.T) {
	m := &gauge{name: "pending", group: GroupShredscan}
	a := Record{metrics: m, value: 3}
	b := Record{metrics: m, value: 9}

	require.NoError(t, a.Merge(b))
	assert.Equal(t, Value(9), a.Value())
}

func TestRecordMergeMaxMin(t *testing.T) {
	mx := &maxGauge{name: "payload_max", group: GroupShredscan}
	a := Record{metrics: mx, value: 3}
	require.NoError(t, a.Merge(Record{metrics: mx, value: 9}))
	require.NoError(t, a.Merge(Record{metrics: mx, value: 1}))
	assert.Equal(t, Value(9), a.Value())

	mn := &minGauge{name: "payload_min", group: GroupShredscan}
	b := Record{metrics: mn, value: 3}
	require.NoError(t, b.Merge(Record{metrics: mn, value: 9}))
	require.NoError(t, b.Merge(Record{metrics: mn, value: 1}))
	assert.Equal(t, Value(1), b.Value())
}

func TestRecordMergeAvg(t *testing.T) {
	m := &avggauge{name: "payload_avg", group: GroupShredscan}
	a := Record{metrics: m, value: 10, cnt: 1}
	require.NoError(t, a.Merge(Record{metrics: m, value: 20, cnt: 1}))
	require.NoError(t, a.Merge(Record{metrics: m, value: 30, cnt: 1}))

	assert.Equal(t, Value(20), a.Value())

	raw, cnt := a.RawData()
	assert.Equal(t, Value(60), raw)
	assert.Equal(t, 3, cnt)
}

func TestRecordMergeMismatch(t *testing.T) {
	a := Record{metrics: &counter{name: "a", group: GroupShredscan}, value: 1}
	b := Record{metrics: &counter{name: "b", group: GroupShredscan}, value: 1}
	assert.Error(t, a.Merge(b))

	c := Record{metrics: &counter{name: "a", group: GroupShredscan}, value: 1,
		dimensions: Dimension{DimReason: "stale"}}
	d := Record{metrics: &counter{name: "a", group: GroupShredscan}, value: 1,
		dimensions: Dimension{DimReason: "capacity"}}
	assert.Error(t, c.Merge(d))
}

func TestRecordClone(t *testing.T) {
	m := &counter{name: "a", group: GroupShredscan}
	orig := Record{metrics: m, value: 1, dimensions: Dimension{DimRule: "x"}}

	cp := orig.Clone()
	cp.dimensions[DimRule] = "y"

	assert.Equal(t, "x", orig.Dimensions()[DimRule])
	assert.Equal(t, "y", cp.Dimensions()[DimRule])
}
