package metrics

// minGauge implements a gauge that keeps the lowest value observed.
type minGauge struct {
	name  string
	group string
}

// Name returns the metric name.
func (g *minGauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *minGauge) Group() string {
	return g.group
}

// Policy returns Policy_Min.
func (g *minGauge) Policy() Policy {
	return Policy_Min
}

// Update feeds an observation without dimensions.
func (g *minGauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim feeds an observation with dimensions.
func (g *minGauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
