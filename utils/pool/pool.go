// Package pool provides a wrapper around sync.Pool with added metrics.
package pool

import (
	"sync"

	"github.com/solwatch/shredscan/metrics"
)

// Pool wraps sync.Pool and counts object creations, making pool churn
// visible on the dashboard. Datagram buffers are the main user.
type Pool struct {
	Name string     // Pool name, used as a metric dimension.
	Pool *sync.Pool // Underlying sync.Pool instance.
}

// NewPool creates a new instrumented pool. newFunc is called to create an
// item when the pool is empty; each such creation increments the pool
// creation counter under the pool's name.
func NewPool(name string, newFunc func() any) *Pool {
	p := &Pool{
		Name: name,
	}

	p.Pool = &sync.Pool{
		New: func() any {
			metrics.IncrCounterWithDimGroup(metrics.NamePoolCreateTotal, metrics.GroupShredscan, 1, metrics.Dimension{
				metrics.DimPoolName: name,
			})
			return newFunc()
		},
	}
	return p
}

// Put adds x back to the pool for reuse.
func (p *Pool) Put(x any) {
	p.Pool.Put(x)
}

// Get retrieves an item from the pool, creating one when empty.
func (p *Pool) Get() any {
	return p.Pool.Get()
}
