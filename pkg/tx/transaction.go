package tx

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// Transaction is a legacy transaction under construction or decoded from
// the wire.
//
// The transaction id is not stored. Hash recomputes it from the current
// contents, so it cannot go stale as inputs are signed.
type Transaction struct {
	Version  uint32
	LockTime uint32
	Ins      []TxIn
	Outs     []TxOut

	net    *crypto.Network // Renders and parses addresses
	logger *slog.Logger
}

// New creates an empty version 1 transaction on the main network.
func New() *Transaction {
	return &Transaction{
		Version: DefaultVersion,
		net:     crypto.MainNet,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithNetwork sets the network used for addresses and re-derives the
// display address of every output.
func (t *Transaction) WithNetwork(net *crypto.Network) *Transaction {
	t.net = net
	for i := range t.Outs {
		t.Outs[i].Address = outputAddress(t.Outs[i].Script, net)
	}
	return t
}

// WithLogger sets the logger used for debug output.
func (t *Transaction) WithLogger(logger *slog.Logger) *Transaction {
	t.logger = logger
	return t
}

// WithLockTime sets nLockTime.
//
// Values below 500000000 are block heights, larger values UNIX timestamps.
func (t *Transaction) WithLockTime(lockTime uint32) *Transaction {
	t.LockTime = lockTime
	return t
}

// Network returns the network used for addresses.
func (t *Transaction) Network() *crypto.Network {
	return t.network()
}

// network and log let a zero Transaction behave like New().
func (t *Transaction) network() *crypto.Network {
	if t.net == nil {
		return crypto.MainNet
	}
	return t.net
}

func (t *Transaction) log() *slog.Logger {
	if t.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.logger
}

// Hash returns the transaction id: the double SHA-256 of the serialization.
// Its String method yields the conventional byte-reversed hex form.
func (t *Transaction) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(t.Serialize())
}

// TxID returns the transaction id in display hex.
func (t *Transaction) TxID() string {
	return t.Hash().String()
}

// AddInput appends a copy of in.
func (t *Transaction) AddInput(in TxIn) {
	t.Ins = append(t.Ins, in.clone())
}

// AddInputHash appends an unsigned input spending output index of the
// transaction whose id is hashHex (display order).
func (t *Transaction) AddInputHash(hashHex string, index uint32) error {
	hash, err := parseDisplayHash(hashHex)
	if err != nil {
		return err
	}
	t.AddInput(TxIn{
		PreviousOutpoint: Outpoint{Hash: hash, Index: index},
		Sequence:         DefaultSequence,
	})
	return nil
}

// AddInputOutpoint appends an unsigned input from a "hash:index" string.
func (t *Transaction) AddInputOutpoint(outpoint string) error {
	hashHex, indexStr, ok := cutLast(outpoint)
	if !ok {
		return argumentError("outpoint", fmt.Sprintf("expected hash:index, got %q", outpoint), nil)
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return argumentError("outpoint", "index is not a 32-bit unsigned integer", err)
	}
	return t.AddInputHash(hashHex, uint32(index))
}

// AddInputFromTx appends an unsigned input spending output index of prev.
func (t *Transaction) AddInputFromTx(prev *Transaction, index uint32) error {
	if prev == nil {
		return argumentError("previous transaction", "nil", nil)
	}
	if int(index) >= len(prev.Outs) {
		return argumentError("index",
			fmt.Sprintf("previous transaction has %d outputs, got index %d", len(prev.Outs), index), nil)
	}
	t.AddInput(TxIn{
		PreviousOutpoint: Outpoint{Hash: prev.Hash(), Index: index},
		Sequence:         DefaultSequence,
	})
	return nil
}

// AddOutput appends a copy of out, deriving its display address when unset.
func (t *Transaction) AddOutput(out TxOut) {
	out = out.clone()
	if out.Address == "" {
		out.Address = outputAddress(out.Script, t.network())
	}
	t.Outs = append(t.Outs, out)
}

// AddOutputAddress appends an output paying value to address.
func (t *Transaction) AddOutputAddress(address string, value uint64) error {
	lock, err := script.PayToAddress(address, t.network())
	if err != nil {
		return argumentError("address", strconv.Quote(address), err)
	}
	t.Outs = append(t.Outs, TxOut{Value: value, Script: lock, Address: address})
	return nil
}

// AddOutputString appends an output from an "address:value" string.
func (t *Transaction) AddOutputString(output string) error {
	address, valueStr, ok := cutLast(output)
	if !ok {
		return argumentError("output", fmt.Sprintf("expected address:value, got %q", output), nil)
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return argumentError("output", "value is not an unsigned integer", err)
	}
	return t.AddOutputAddress(address, value)
}

// Clone returns a deep copy. Mutating the copy's inputs or outputs never
// affects t.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{
		Version:  t.Version,
		LockTime: t.LockTime,
		net:      t.net,
		logger:   t.logger,
	}
	if t.Ins != nil {
		c.Ins = make([]TxIn, len(t.Ins))
		for i, in := range t.Ins {
			c.Ins[i] = in.clone()
		}
	}
	if t.Outs != nil {
		c.Outs = make([]TxOut, len(t.Outs))
		for i, out := range t.Outs {
			c.Outs[i] = out.clone()
		}
	}
	return c
}

// Equal reports whether t and other serialize identically: same version,
// locktime, inputs and outputs in the same order. Display addresses, the
// network and the logger are not compared.
func (t *Transaction) Equal(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Version != other.Version || t.LockTime != other.LockTime ||
		len(t.Ins) != len(other.Ins) || len(t.Outs) != len(other.Outs) {
		return false
	}
	for i := range t.Ins {
		if !t.Ins[i].equal(other.Ins[i]) {
			return false
		}
	}
	for i := range t.Outs {
		if !t.Outs[i].equal(other.Outs[i]) {
			return false
		}
	}
	return true
}

// parseDisplayHash parses a 64-character transaction id in display order.
func parseDisplayHash(s string) (chainhash.Hash, error) {
	if len(s) != chainhash.MaxHashStringSize {
		return chainhash.Hash{}, argumentError("hash",
			fmt.Sprintf("expected %d hex characters, got %d", chainhash.MaxHashStringSize, len(s)), nil)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return chainhash.Hash{}, argumentError("hash", "not hex", err)
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, argumentError("hash", "not a transaction id", err)
	}
	return *h, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func outputAddress(s script.Script, net *crypto.Network) string {
	addr, err := s.Address(net)
	if err != nil {
		return ""
	}
	return addr
}
