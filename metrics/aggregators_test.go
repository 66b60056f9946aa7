package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeUpdate(t *testing.T) {
	cr := withCaptureReporter(t)

	UpdateGaugeWithGroup("test_pending", GroupShredscan, 12)

	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Value(12), records[0].Value())
	assert.Equal(t, Policy_Set, records[0].Metrics().Policy())
}

func TestAvgGaugePolicy(t *testing.T) {
	cr := withCaptureReporter(t)

	UpdateAvgGaugeWithGroup("test_payload_avg", GroupShredscan, 100)

	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Policy_Avg, records[0].Metrics().Policy())

	_, cnt := records[0].RawData()
	assert.Equal(t, 1, cnt)
}

func TestMaxMinGaugePolicies(t *testing.T) {
	cr := withCaptureReporter(t)

	UpdateMaxGaugeWithGroup("test_max", GroupShredscan, 5)
	UpdateMinGaugeWithGroup("test_min", GroupShredscan, 5)

	records := cr.all()
	require.Len(t, records, 2)
	assert.Equal(t, Policy_Max, records[0].Metrics().Policy())
	assert.Equal(t, Policy_Min, records[1].Metrics().Policy())
}

func TestStopwatchRecordsMilliseconds(t *testing.T) {
	cr := withCaptureReporter(t)

	start := time.Now().Add(-50 * time.Millisecond)
	d := RecordStopwatchWithGroup("test_scan_ms", GroupShredscan, start)
	assert.GreaterOrEqual(t, d, 50*time.Millisecond)

	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Policy_Stopwatch, records[0].Metrics().Policy())
	assert.GreaterOrEqual(t, float64(records[0].Value()), 50.0)
}

func TestMetricRegistryReuse(t *testing.T) {
	c1 := getCounter("reused_counter", GroupShredscan)
	c2 := getCounter("reused_counter", GroupShredscan)
	assert.Same(t, c1.(*counter), c2.(*counter))

	g1 := getGauge("reused_gauge", GroupShredscan)
	g2 := getGauge("reused_gauge", GroupShredscan)
	assert.Same(t, g1.(*gauge), g2.(*gauge))
}
