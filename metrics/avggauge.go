package metrics

// avggauge implements a gauge reporting the mean of its observations,
// used for quantities like average payload size.
type avggauge struct {
	name  string
	group string
}

// Name returns the metric name.
func (g *avggauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *avggauge) Group() string {
	return g.group
}

// Policy returns Policy_Avg.
func (g *avggauge) Policy() Policy {
	return Policy_Avg
}

// Update feeds an observation without dimensions.
func (g *avggauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim feeds an observation with dimensions. Each observation
// contributes to the average with equal weight.
func (g *avggauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		cnt:        1,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
