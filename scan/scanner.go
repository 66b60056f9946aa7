// Package scan matches decoded ledger entries against program event
// rules. Scanning is pure: no state survives a call, so the pipeline can
// invoke it inline on its worker goroutine.
package scan

import (
	"time"

	"github.com/solwatch/shredscan/ledger"
	"github.com/solwatch/shredscan/metrics"
)

// EventRule describes one instruction shape to detect: a target program,
// the 8-byte method discriminator opening the instruction data, and the
// positions of the interesting accounts in the instruction's account
// list.
type EventRule struct {
	Name          string        // Rule name, used in detections and metrics.
	Program       ledger.Pubkey // Program whose instructions are inspected.
	Discriminator [8]byte       // Anchor-style method discriminator.

	// Positions into the instruction account list.
	TokenIndex        int
	BondingCurveIndex int
	CreatorIndex      int
}

// Detection is one matched instruction, resolved to account addresses.
type Detection struct {
	Rule         string
	Token        ledger.Pubkey
	BondingCurve ledger.Pubkey
	Creator      ledger.Pubkey

	Seq        uint64 // Sequence number of the payload the match came from.
	EntryCount int    // Entries in the scanned batch.
	TxCount    int    // Transactions in the scanned batch.
}

// Scanner applies a fixed rule set to entry batches.
type Scanner struct {
	rules []EventRule
}

// New creates a Scanner over rules. The slice is not copied; callers
// must not mutate it afterwards.
func New(rules []EventRule) *Scanner {
	return &Scanner{rules: rules}
}

// Rules returns the configured rule set.
func (s *Scanner) Rules() []EventRule {
	return s.rules
}

// Scan walks every instruction of every transaction in entries and
// returns the detections. At most one detection is produced per
// transaction: the first matching instruction wins. Transactions and
// instructions that cannot satisfy a rule's account positions are
// skipped without error.
func (s *Scanner) Scan(seq uint64, entries []ledger.Entry) []Detection {
	start := time.Now()

	txCount := 0
	for _, e := range entries {
		txCount += len(e.Transactions)
	}

	var out []Detection
	for _, e := range entries {
		for _, tx := range e.Transactions {
			if det, ok := s.scanTransaction(&tx); ok {
				det.Seq = seq
				det.EntryCount = len(entries)
				det.TxCount = txCount
				out = append(out, det)

				metrics.IncrCounterWithDimGroup(metrics.NameScanDetectionTotal, metrics.GroupShredscan,
					1, metrics.Dimension{metrics.DimRule: det.Rule})
			}
		}
	}

	metrics.RecordStopwatchWithGroup(metrics.NameScanBatchMS, metrics.GroupShredscan, start)
	return out
}

func (s *Scanner) scanTransaction(tx *ledger.Transaction) (Detection, bool) {
	for i := range tx.Instructions {
		instr := &tx.Instructions[i]

		program, ok := resolveKey(tx, int(instr.ProgramIndex))
		if !ok {
			continue
		}

		for _, rule := range s.rules {
			if program != rule.Program {
				continue
			}
			if len(instr.Data) < 8 || [8]byte(instr.Data[:8]) != rule.Discriminator {
				continue
			}

			token, ok1 := resolveAccount(tx, instr, rule.TokenIndex)
			curve, ok2 := resolveAccount(tx, instr, rule.BondingCurveIndex)
			creator, ok3 := resolveAccount(tx, instr, rule.CreatorIndex)
			if !ok1 || !ok2 || !ok3 {
				// The instruction matched the discriminator but its
				// account list is too short for this rule.
				continue
			}

			return Detection{
				Rule:         rule.Name,
				Token:        token,
				BondingCurve: curve,
				Creator:      creator,
			}, true
		}
	}
	return Detection{}, false
}

// resolveAccount maps a rule position through the instruction account
// list into the transaction's account keys.
func resolveAccount(tx *ledger.Transaction, instr *ledger.Instruction, pos int) (ledger.Pubkey, bool) {
	if pos < 0 || pos >= len(instr.Accounts) {
		return ledger.Pubkey{}, false
	}
	return resolveKey(tx, int(instr.Accounts[pos]))
}

func resolveKey(tx *ledger.Transaction, idx int) (ledger.Pubkey, bool) {
	if idx < 0 || idx >= len(tx.AccountKeys) {
		return ledger.Pubkey{}, false
	}
	return tx.AccountKeys[idx], true
}
