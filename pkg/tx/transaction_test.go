package tx

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

func TestNewDefaults(t *testing.T) {
	tx := New()
	assert.Equal(t, DefaultVersion, tx.Version)
	assert.Zero(t, tx.LockTime)
	assert.Empty(t, tx.Ins)
	assert.Empty(t, tx.Outs)
	assert.Equal(t, crypto.MainNet, tx.Network())
}

func TestAddInputForms(t *testing.T) {
	prev := buildTx(t)

	tx := New()
	require.NoError(t, tx.AddInputOutpoint(displayHash(0xab)+":7"))
	require.NoError(t, tx.AddInputHash(displayHash(0xcd), 2))
	require.NoError(t, tx.AddInputFromTx(prev, 1))
	tx.AddInput(TxIn{PreviousOutpoint: Outpoint{Index: 9}, Sequence: 1})

	require.Len(t, tx.Ins, 4)
	assert.Equal(t, displayHash(0xab)+":7", tx.Ins[0].PreviousOutpoint.String())
	assert.Equal(t, displayHash(0xcd)+":2", tx.Ins[1].PreviousOutpoint.String())
	assert.Equal(t, prev.Hash(), tx.Ins[2].PreviousOutpoint.Hash)
	assert.Equal(t, uint32(1), tx.Ins[2].PreviousOutpoint.Index)
	assert.Equal(t, uint32(1), tx.Ins[3].Sequence)

	for _, in := range tx.Ins[:3] {
		assert.Equal(t, DefaultSequence, in.Sequence)
		assert.Empty(t, in.Script, "adding an input never signs it")
	}

	// Display order is the reverse of wire order.
	assert.Equal(t, byte(0xab), tx.Ins[0].PreviousOutpoint.Hash[0])
}

func TestAddInputInvalid(t *testing.T) {
	h := displayHash(1)
	for _, s := range []string{
		"",
		h,
		h + ":",
		":0",
		h + ":x",
		h + ":-1",
		h + ":4294967296",
		h[:62] + ":0",
		h[:62] + "zz:0",
	} {
		err := New().AddInputOutpoint(s)
		require.Error(t, err, s)
		assert.ErrorIs(t, err, ErrInvalidArgument, s)

		var argErr *ArgumentError
		assert.True(t, errors.As(err, &argErr), s)
	}

	assert.ErrorIs(t, New().AddInputFromTx(nil, 0), ErrInvalidArgument)
	assert.ErrorIs(t, New().AddInputFromTx(buildTx(t), 2), ErrInvalidArgument)
}

func TestAddOutputForms(t *testing.T) {
	addr := testKey(t, 1).Address(crypto.MainNet)
	redeem := script.Script{txscript.OP_1}
	p2shAddr := redeem.ScriptHashAddress(crypto.MainNet)

	tx := New()
	require.NoError(t, tx.AddOutputString(addr+":1000"))
	require.NoError(t, tx.AddOutputAddress(p2shAddr, 2000))
	tx.AddOutput(TxOut{Value: 3000, Script: p2pkhScript(t, testKey(t, 2))})

	require.Len(t, tx.Outs, 3)
	assert.Equal(t, uint64(1000), tx.Outs[0].Value)
	assert.Equal(t, addr, tx.Outs[0].Address)
	assert.Equal(t, script.PubKeyHash, tx.Outs[0].Script.Classify())

	assert.Equal(t, p2shAddr, tx.Outs[1].Address)
	assert.Equal(t, script.ScriptHash, tx.Outs[1].Script.Classify())

	assert.Equal(t, testKey(t, 2).Address(crypto.MainNet), tx.Outs[2].Address)
}

func TestAddOutputInvalid(t *testing.T) {
	addr := testKey(t, 1).Address(crypto.MainNet)
	testAddr := testKey(t, 1).Address(crypto.TestNet)

	for _, s := range []string{
		"",
		addr,
		addr + ":",
		":100",
		addr + ":abc",
		addr + ":-5",
		"notanaddress:100",
		testAddr + ":100",
	} {
		err := New().AddOutputString(s)
		assert.ErrorIs(t, err, ErrInvalidArgument, s)
	}

	// The same address is fine on its own network.
	assert.NoError(t, New().WithNetwork(crypto.TestNet).AddOutputString(testAddr+":100"))
}

func TestCloneIsolation(t *testing.T) {
	tx := buildTx(t)
	require.NoError(t, tx.Sign(0, testKey(t, 1), SigHashAll))
	original := tx.Ins[0].Script.Clone()

	c := tx.Clone()
	require.True(t, c.Equal(tx))

	c.Ins[0].Script[0] ^= 0xff
	c.Outs[0].Script[0] ^= 0xff
	c.Ins[1].Sequence = 0
	c.Outs = append(c.Outs, TxOut{Value: 1})

	assert.True(t, original.Equal(tx.Ins[0].Script))
	assert.Equal(t, byte(txscript.OP_DUP), tx.Outs[0].Script[0])
	assert.Equal(t, DefaultSequence, tx.Ins[1].Sequence)
	assert.Len(t, tx.Outs, 2)
	assert.False(t, c.Equal(tx))
}

func TestEqual(t *testing.T) {
	a, b := buildTx(t), buildTx(t)
	assert.True(t, a.Equal(b))

	b.Outs[1].Address = "display only"
	assert.True(t, a.Equal(b))

	b.Version = 2
	assert.False(t, a.Equal(b))

	b = buildTx(t)
	b.Ins[0], b.Ins[1] = b.Ins[1], b.Ins[0]
	assert.False(t, a.Equal(b), "input order is significant")

	var nilTx *Transaction
	assert.False(t, a.Equal(nilTx))
	assert.True(t, nilTx.Equal(nil))
}

func TestZeroTransaction(t *testing.T) {
	var tx Transaction
	require.NoError(t, tx.AddInputHash(displayHash(1), 0))
	require.NoError(t, tx.AddOutputAddress(testKey(t, 1).Address(crypto.MainNet), 1))
	require.NoError(t, tx.Sign(0, testKey(t, 1), SigHashAll))
	assert.Equal(t, crypto.MainNet, tx.Network())
}
