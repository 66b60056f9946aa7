package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solwatch/shredscan/ledger"
)

var (
	testProgram = pk(0xF0)
	testDisc    = [8]byte{24, 30, 200, 40, 5, 28, 7, 119}
)

func pk(b byte) ledger.Pubkey {
	var p ledger.Pubkey
	p[0] = b
	return p
}

func testRule() EventRule {
	return EventRule{
		Name:              "pumpfun_create",
		Program:           testProgram,
		Discriminator:     testDisc,
		TokenIndex:        0,
		BondingCurveIndex: 2,
		CreatorIndex:      7,
	}
}

// createTx builds a transaction whose first instruction invokes the test
// program with the given data and eight instruction accounts.
func createTx(data []byte) ledger.Transaction {
	return ledger.Transaction{
		AccountKeys: []ledger.Pubkey{
			pk(0x01), // token mint
			pk(0x02),
			pk(0x03), // bonding curve
			pk(0x04), pk(0x05), pk(0x06), pk(0x07),
			pk(0x08), // creator
			testProgram,
		},
		Instructions: []ledger.Instruction{
			{
				ProgramIndex: 8,
				Accounts:     []uint8{0, 1, 2, 3, 4, 5, 6, 7},
				Data:         data,
			},
		},
	}
}

func discData(extra ...byte) []byte {
	return append(testDisc[:], extra...)
}

func TestScanDetectsCreate(t *testing.T) {
	s := New([]EventRule{testRule()})

	entries := []ledger.Entry{{Transactions: []ledger.Transaction{createTx(discData(1, 2, 3))}}}
	dets := s.Scan(42, entries)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.Equal(t, "pumpfun_create", d.Rule)
	assert.Equal(t, pk(0x01), d.Token)
	assert.Equal(t, pk(0x03), d.BondingCurve)
	assert.Equal(t, pk(0x08), d.Creator)
	assert.Equal(t, uint64(42), d.Seq)
	assert.Equal(t, 1, d.EntryCount)
	assert.Equal(t, 1, d.TxCount)
}

func TestScanFirstMatchPerTransactionWins(t *testing.T) {
	s := New([]EventRule{testRule()})

	tx := createTx(discData())
	second := tx.Instructions[0]
	second.Accounts = []uint8{7, 1, 5, 3, 4, 2, 6, 0} // Different resolution order.
	tx.Instructions = append(tx.Instructions, second)

	dets := s.Scan(1, []ledger.Entry{{Transactions: []ledger.Transaction{tx}}})
	require.Len(t, dets, 1)
	assert.Equal(t, pk(0x01), dets[0].Token, "only the first matching instruction may report")
}

func TestScanSkipsNonMatching(t *testing.T) {
	s := New([]EventRule{testRule()})

	wrongDisc := createTx(append([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0))
	shortData := createTx(testDisc[:4])

	otherProgram := createTx(discData())
	otherProgram.AccountKeys[8] = pk(0xEE)

	entries := []ledger.Entry{{Transactions: []ledger.Transaction{wrongDisc, shortData, otherProgram}}}
	assert.Empty(t, s.Scan(1, entries))
}

func TestScanSkipsShortAccountList(t *testing.T) {
	s := New([]EventRule{testRule()})

	tx := createTx(discData())
	tx.Instructions[0].Accounts = []uint8{0, 1, 2} // CreatorIndex 7 unreachable.

	assert.Empty(t, s.Scan(1, []ledger.Entry{{Transactions: []ledger.Transaction{tx}}}))
}

func TestScanSkipsBadProgramIndex(t *testing.T) {
	s := New([]EventRule{testRule()})

	tx := createTx(discData())
	tx.Instructions[0].ProgramIndex = 50 // Past the account key list.

	assert.Empty(t, s.Scan(1, []ledger.Entry{{Transactions: []ledger.Transaction{tx}}}))
}

func TestScanSkipsAccountIndexPastKeys(t *testing.T) {
	s := New([]EventRule{testRule()})

	tx := createTx(discData())
	tx.Instructions[0].Accounts[7] = 200 // Creator resolves outside the key list.

	assert.Empty(t, s.Scan(1, []ledger.Entry{{Transactions: []ledger.Transaction{tx}}}))
}

func TestScanMultipleTransactions(t *testing.T) {
	s := New([]EventRule{testRule()})

	a := createTx(discData())
	b := createTx(discData())
	b.AccountKeys[0] = pk(0x99)
	plain := ledger.Transaction{AccountKeys: []ledger.Pubkey{pk(0x10)}}

	entries := []ledger.Entry{
		{Transactions: []ledger.Transaction{a, plain}},
		{Transactions: []ledger.Transaction{b}},
	}

	dets := s.Scan(7, entries)
	require.Len(t, dets, 2)
	assert.Equal(t, pk(0x01), dets[0].Token)
	assert.Equal(t, pk(0x99), dets[1].Token)
	for _, d := range dets {
		assert.Equal(t, 2, d.EntryCount)
		assert.Equal(t, 3, d.TxCount)
	}
}

func TestScanNoRules(t *testing.T) {
	s := New(nil)
	entries := []ledger.Entry{{Transactions: []ledger.Transaction{createTx(discData())}}}
	assert.Empty(t, s.Scan(1, entries))
}

func TestScanNoEntries(t *testing.T) {
	s := New([]EventRule{testRule()})
	assert.Empty(t, s.Scan(1, nil))
	assert.Empty(t, s.Scan(1, []ledger.Entry{}))
}
