package tx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// unlockParts splits a P2PKH unlocking script into signature and public key.
func unlockParts(t *testing.T, s script.Script) ([]byte, *crypto.PublicKey) {
	t.Helper()
	pushes, err := s.Pushes()
	require.NoError(t, err)
	require.Len(t, pushes, 2)
	pub, err := crypto.ParsePublicKey(pushes[1])
	require.NoError(t, err)
	return pushes[0], pub
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		key  *crypto.PrivateKey
	}{
		{"compressed", testKey(t, 1)},
		{"uncompressed", testKey(t, 1).Uncompressed()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tx := buildTx(t)
			require.NoError(t, tx.Sign(0, tc.key, SigHashAll))

			sig, pub := unlockParts(t, tx.Ins[0].Script)
			assert.Equal(t, byte(SigHashAll), sig[len(sig)-1])
			assert.Equal(t, tc.key.PublicKey().Bytes(), pub.Bytes())
			assert.Empty(t, tx.Ins[1].Script, "only the signed input changes")

			lock := p2pkhScript(t, tc.key)
			ok, err := tx.ValidateSignature(0, lock, sig, pub)
			require.NoError(t, err)
			assert.True(t, ok)

			// Without the trailing hash type byte.
			ok, err = tx.ValidateSignature(0, lock, sig[:len(sig)-1], pub)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = tx.ValidateSignature(0, lock, sig, testKey(t, 2).PublicKey())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignBothInputs(t *testing.T) {
	tx := buildTx(t)
	k1, k2 := testKey(t, 1), testKey(t, 2)
	require.NoError(t, tx.Sign(0, k1, SigHashAll))
	require.NoError(t, tx.Sign(1, k2, SigHashAll))

	// Installing input 1's script does not invalidate input 0.
	for i, key := range []*crypto.PrivateKey{k1, k2} {
		sig, pub := unlockParts(t, tx.Ins[i].Script)
		ok, err := tx.ValidateSignature(i, p2pkhScript(t, key), sig, pub)
		require.NoError(t, err)
		assert.True(t, ok, "input %d", i)
	}

	// Changing an output does.
	tx.Outs[0].Value--
	sig, pub := unlockParts(t, tx.Ins[0].Script)
	ok, err := tx.ValidateSignature(0, p2pkhScript(t, k1), sig, pub)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignDeterministic(t *testing.T) {
	a, b := buildTx(t), buildTx(t)
	require.NoError(t, a.Sign(1, testKey(t, 2), SigHashAll))
	require.NoError(t, b.Sign(1, testKey(t, 2), SigHashAll))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.TxID(), b.TxID())
}

func TestSignErrors(t *testing.T) {
	tx := buildTx(t)
	key := testKey(t, 1)

	assert.ErrorIs(t, tx.Sign(2, key, SigHashAll), ErrInvalidArgument)
	assert.ErrorIs(t, tx.Sign(-1, key, SigHashAll), ErrInvalidArgument)

	assert.ErrorIs(t, tx.Sign(0, key, SigHashSingle), ErrNotImplemented)
	assert.Empty(t, tx.Ins[0].Script)
}

func TestValidateSignatureMalformed(t *testing.T) {
	tx := buildTx(t)
	key := testKey(t, 1)

	_, err := tx.ValidateSignature(0, p2pkhScript(t, key), []byte{0x30, 0x01, 0x02}, key.PublicKey())
	assert.Error(t, err)

	_, err = tx.ValidateSignature(5, p2pkhScript(t, key), []byte{0x30}, key.PublicKey())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSignWithKeys(t *testing.T) {
	tx := buildTx(t)
	require.NoError(t, tx.AddInputHash(displayHash(3), 0))

	var logs bytes.Buffer
	tx.WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	k1, k2, k3 := testKey(t, 1), testKey(t, 2), testKey(t, 3)
	records := map[string]OutputRecord{
		tx.Ins[0].PreviousOutpoint.String(): {Address: k1.Address(crypto.MainNet), Value: 60000},
		tx.Ins[1].PreviousOutpoint.String(): {Address: k3.Address(crypto.MainNet), Value: 1000},
	}

	require.NoError(t, tx.SignWithKeys([]*crypto.PrivateKey{k2, k1}, records, SigHashAll))

	assert.NotEmpty(t, tx.Ins[0].Script, "input 0 has a record and a key")
	assert.Empty(t, tx.Ins[1].Script, "input 1 has no matching key")
	assert.Empty(t, tx.Ins[2].Script, "input 2 has no record")

	sig, pub := unlockParts(t, tx.Ins[0].Script)
	ok, err := tx.ValidateSignature(0, p2pkhScript(t, k1), sig, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Contains(t, logs.String(), "skipping input without matching key")
	assert.Contains(t, logs.String(), "skipping input without output record")
	assert.Contains(t, logs.String(), "signed input")
}

func TestSignWithKeysNoKeys(t *testing.T) {
	tx := buildTx(t)
	before := tx.Serialize()
	require.NoError(t, tx.SignWithKeys(nil, nil, SigHashAll))
	assert.Equal(t, before, tx.Serialize())
}

func TestP2SHMultisig(t *testing.T) {
	keys := []*crypto.PrivateKey{testKey(t, 1), testKey(t, 2), testKey(t, 3)}
	pubkeys := make([][]byte, len(keys))
	for i, k := range keys {
		pubkeys[i] = k.PublicKey().Bytes()
	}
	redeem, err := script.NewMultisig(2, pubkeys)
	require.NoError(t, err)

	tx := buildTx(t)
	before := tx.Serialize()

	sig3, err := tx.P2SHSign(0, redeem, keys[2], SigHashAll)
	require.NoError(t, err)
	sig1, err := tx.P2SHSign(0, redeem, keys[0], SigHashAll)
	require.NoError(t, err)
	assert.Equal(t, before, tx.Serialize(), "P2SHSign installs nothing")
	assert.Equal(t, byte(SigHashAll), sig1[len(sig1)-1])

	ok, err := tx.ValidateSignature(0, redeem, sig1, keys[0].PublicKey())
	require.NoError(t, err)
	assert.True(t, ok)

	ordered, err := tx.OrderMultisigSignatures(0, redeem, [][]byte{sig3, sig1})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{sig1, sig3}, ordered)

	require.NoError(t, tx.ApplyMultisigScript(0, redeem, ordered))
	pushes, err := tx.Ins[0].Script.Pushes()
	require.NoError(t, err)
	require.Len(t, pushes, 4)
	assert.Empty(t, pushes[0])
	assert.Equal(t, sig1, pushes[1])
	assert.Equal(t, sig3, pushes[2])
	assert.Equal(t, []byte(redeem), pushes[3])
	assert.Empty(t, tx.Ins[1].Script)
}

func TestOrderMultisigSignaturesErrors(t *testing.T) {
	keys := []*crypto.PrivateKey{testKey(t, 1), testKey(t, 2)}
	redeem, err := script.NewMultisig(1, [][]byte{
		keys[0].PublicKey().Bytes(), keys[1].PublicKey().Bytes(),
	})
	require.NoError(t, err)

	tx := buildTx(t)
	sig1, err := tx.P2SHSign(0, redeem, keys[0], SigHashAll)
	require.NoError(t, err)
	outsider, err := tx.P2SHSign(0, redeem, testKey(t, 9), SigHashAll)
	require.NoError(t, err)

	_, err = tx.OrderMultisigSignatures(0, redeem, [][]byte{outsider})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tx.OrderMultisigSignatures(0, redeem, [][]byte{sig1, sig1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tx.OrderMultisigSignatures(0, p2pkhScript(t, keys[0]), [][]byte{sig1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.ErrorIs(t, tx.ApplyMultisigScript(0, redeem, nil), ErrInvalidArgument)
	assert.ErrorIs(t, tx.ApplyMultisigScript(7, redeem, [][]byte{sig1}), ErrInvalidArgument)
}

func TestOrderMultisigSignaturesUsesSignatureHashType(t *testing.T) {
	keys := []*crypto.PrivateKey{testKey(t, 1), testKey(t, 2), testKey(t, 3)}
	pubkeys := make([][]byte, len(keys))
	for i, k := range keys {
		pubkeys[i] = k.PublicKey().Bytes()
	}
	redeem, err := script.NewMultisig(2, pubkeys)
	require.NoError(t, err)

	tx := buildTx(t)
	sig3, err := tx.P2SHSign(1, redeem, keys[2], SigHashNone|SigHashAnyoneCanPay)
	require.NoError(t, err)
	sig2, err := tx.P2SHSign(1, redeem, keys[1], SigHashAll|SigHashAnyoneCanPay)
	require.NoError(t, err)
	assert.Equal(t, byte(0x82), sig3[len(sig3)-1])

	ordered, err := tx.OrderMultisigSignatures(1, redeem, [][]byte{sig3, sig2})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{sig2, sig3}, ordered)

	// A NONE signature stays valid when outputs change.
	tx.Outs = tx.Outs[:1]
	_, err = tx.OrderMultisigSignatures(1, redeem, [][]byte{sig3})
	require.NoError(t, err)
	_, err = tx.OrderMultisigSignatures(1, redeem, [][]byte{sig2})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tx.OrderMultisigSignatures(1, redeem, [][]byte{{}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSignRejectsWideHashType(t *testing.T) {
	tx := buildTx(t)
	before := tx.Serialize()

	for _, ht := range []SigHashType{0x101, 0x181, 0xffffffff} {
		err := tx.Sign(0, testKey(t, 1), ht)
		assert.ErrorIs(t, err, ErrInvalidArgument, "hash type %#x", uint32(ht))

		_, err = tx.P2SHSign(0, p2pkhScript(t, testKey(t, 1)), testKey(t, 1), ht)
		assert.ErrorIs(t, err, ErrInvalidArgument, "hash type %#x", uint32(ht))
	}
	assert.Equal(t, before, tx.Serialize())
}
