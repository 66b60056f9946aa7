// Package ledger defines the decoded representation of ledger entries
// carried by the stream, and the codec that parses assembled payloads
// into them.
package ledger

import "encoding/hex"

// Pubkey is a 32-byte account address.
type Pubkey [32]byte

// String renders the pubkey as lowercase hex for logs.
func (p Pubkey) String() string {
	return hex.EncodeToString(p[:])
}

// IsZero reports whether the pubkey is all zero bytes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Entry is one ledger entry: a proof-of-history step plus the
// transactions committed under it.
type Entry struct {
	NumHashes    uint64        `msgpack:"num_hashes"`
	Hash         [32]byte      `msgpack:"hash"`
	Transactions []Transaction `msgpack:"transactions"`
}

// Transaction carries the flattened account list of a transaction and
// its instructions. Instruction account references index into
// AccountKeys.
type Transaction struct {
	Signatures   [][]byte      `msgpack:"signatures"`
	AccountKeys  []Pubkey      `msgpack:"account_keys"`
	Instructions []Instruction `msgpack:"instructions"`
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	// ProgramIndex points into the transaction's AccountKeys at the
	// invoked program.
	ProgramIndex uint8 `msgpack:"program_index"`
	// Accounts are indexes into AccountKeys, in the order the program
	// receives them.
	Accounts []uint8 `msgpack:"accounts"`
	// Data is the opaque instruction payload. For anchor-style programs
	// the first 8 bytes are the method discriminator.
	Data []byte `msgpack:"data"`
}
