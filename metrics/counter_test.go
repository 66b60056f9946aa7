package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureReporter collects reported records for assertions.
type captureReporter struct {
	mu      sync.Mutex
	records []Record
}

func (cr *captureReporter) Report(r Record) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.records = append(cr.records, *r.Clone())
}

func (cr *captureReporter) all() []Record {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return append([]Record{}, cr.records...)
}

func (cr *captureReporter) reset() {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.records = nil
}

func withCaptureReporter(t *testing.T) *captureReporter {
	t.Helper()
	cr := &captureReporter{}
	_Reporters = []Reporter{cr}
	t.Cleanup(func() { _Reporters = []Reporter{} })
	return cr
}

func TestCounterIncr(t *testing.T) {
	cr := withCaptureReporter(t)

	c := getCounter("test_reject_total", GroupShredscan)
	c.Incr(10)

	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Value(10), records[0].Value())
	assert.Equal(t, "test_reject_total", records[0].Metrics().Name())
	assert.Equal(t, GroupShredscan, records[0].Metrics().Group())
	assert.Equal(t, Policy_Sum, records[0].Metrics().Policy())
}

func TestCounterIncrWithDim(t *testing.T) {
	cr := withCaptureReporter(t)

	c := getCounter("test_reject_dim_total", GroupShredscan)
	c.IncrWithDim(5, Dimension{DimReason: "index_out_of_range"})

	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Value(5), records[0].Value())
	assert.Equal(t, "index_out_of_range", records[0].Dimensions()[DimReason])
}

func TestCounterConcurrent(t *testing.T) {
	cr := withCaptureReporter(t)

	c := getCounter("test_concurrent_total", GroupShredscan)

	var wg sync.WaitGroup
	concurrency := 10
	iterations := 100
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				c.Incr(1)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, cr.all(), concurrency*iterations)
}

func TestCounterHelperFunctions(t *testing.T) {
	cr := withCaptureReporter(t)

	IncrCounterWithGroup("helper_total", GroupShredscan, 20)
	records := cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Value(20), records[0].Value())

	cr.reset()
	IncrCounterWithDimGroup("helper_dim_total", GroupShredscan, 15, Dimension{DimRule: "pumpfun_create"})
	records = cr.all()
	require.Len(t, records, 1)
	assert.Equal(t, Value(15), records[0].Value())
	assert.Equal(t, "pumpfun_create", records[0].Dimensions()[DimRule])
}
