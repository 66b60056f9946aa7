package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) Pubkey {
	var p Pubkey
	p[0] = b
	return p
}

func TestDecodeEntryBatch(t *testing.T) {
	in := []Entry{
		{
			NumHashes: 12,
			Hash:      [32]byte{1, 2, 3},
			Transactions: []Transaction{
				{
					AccountKeys: []Pubkey{key(0xAA), key(0xBB)},
					Instructions: []Instruction{
						{ProgramIndex: 1, Accounts: []uint8{0}, Data: []byte{9, 9}},
					},
				},
			},
		},
		{NumHashes: 1, Hash: [32]byte{4}},
	}

	payload, err := EncodeEntries(in)
	require.NoError(t, err)

	out, err := NewMsgpackDecoder().Decode(payload)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(12), out[0].NumHashes)
	require.Len(t, out[0].Transactions, 1)
	tx := out[0].Transactions[0]
	assert.Equal(t, key(0xAA), tx.AccountKeys[0])
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, uint8(1), tx.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{9, 9}, tx.Instructions[0].Data)
	assert.Empty(t, out[1].Transactions)
}

func TestDecodeEmptyPayload(t *testing.T) {
	out, err := NewMsgpackDecoder().Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := NewMsgpackDecoder().Decode([]byte("not msgpack at all"))
	assert.Error(t, err)
}

func TestPubkeyString(t *testing.T) {
	p := key(0xAB)
	s := p.String()
	assert.Len(t, s, 64)
	assert.Equal(t, "ab", s[:2])
	assert.False(t, p.IsZero())
	assert.True(t, Pubkey{}.IsZero())
}
