package reporter

import (
	"context"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/scan"
)

// LogReporter writes each detection to the process log. It is the
// default sink when no external reporter is configured.
type LogReporter struct{}

// NewLogReporter creates a LogReporter.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// Name implements Reporter.
func (r *LogReporter) Name() string { return "log" }

// FactoryName identifies this plugin instance.
func (r *LogReporter) FactoryName() string { return "log_reporter" }

// Report implements Reporter.
func (r *LogReporter) Report(_ context.Context, det *scan.Detection) error {
	log.Info().
		Str("rule", det.Rule).
		Hex("token", det.Token[:]).
		Hex("bondingCurve", det.BondingCurve[:]).
		Hex("creator", det.Creator[:]).
		Uint64("seq", det.Seq).
		Int("entries", det.EntryCount).
		Int("txs", det.TxCount).
		Msg("detection")
	return nil
}

// Close implements Reporter.
func (r *LogReporter) Close() error { return nil }
