package metrics

// maxGauge implements a gauge that keeps the highest value observed.
type maxGauge struct {
	name  string
	group string
}

// Name returns the metric name.
func (g *maxGauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *maxGauge) Group() string {
	return g.group
}

// Policy returns Policy_Max.
func (g *maxGauge) Policy() Policy {
	return Policy_Max
}

// Update feeds an observation without dimensions.
func (g *maxGauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim feeds an observation with dimensions.
func (g *maxGauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
