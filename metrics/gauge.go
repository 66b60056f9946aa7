package metrics

// Gauge is the interface for metrics representing a point-in-time value
// that can move in either direction, such as the pending-message count.
type Gauge interface {
	Metrics
	// Update sets the gauge's absolute value.
	Update(value Value)
	// UpdateWithDim sets the gauge's absolute value with dimensions.
	UpdateWithDim(value Value, dimensions Dimension)
}

// gauge implements Gauge with a set aggregation policy: the last value wins.
type gauge struct {
	name  string
	group string
}

// Name returns the metric name.
func (g *gauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *gauge) Group() string {
	return g.group
}

// Policy returns Policy_Set.
func (g *gauge) Policy() Policy {
	return Policy_Set
}

// Update updates the gauge value without dimensions.
func (g *gauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim updates the gauge value and reports it to every registered
// reporter.
func (g *gauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
