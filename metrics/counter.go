package metrics

// Counter is the interface for metrics that accumulate over time, such as
// datagram counts or reject totals.
type Counter interface {
	Metrics
	// IncrWithDim increments the counter by delta with dimensions.
	IncrWithDim(delta Value, dimensions Dimension)
	// Incr increments the counter by delta without dimensions.
	Incr(delta Value)
}

// counter implements Counter with a sum aggregation policy.
type counter struct {
	name  string
	group string
}

// Name returns the metric name.
func (c *counter) Name() string {
	return c.name
}

// Group returns the metric group.
func (c *counter) Group() string {
	return c.group
}

// Policy returns Policy_Sum.
func (c *counter) Policy() Policy {
	return Policy_Sum
}

// Incr increments the counter by v without dimensions.
func (c *counter) Incr(v Value) {
	c.IncrWithDim(v, nil)
}

// IncrWithDim increments the counter by v and reports the sample to every
// registered reporter.
func (c *counter) IncrWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    c,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
