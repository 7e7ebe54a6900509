package tx

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
)

// testKey returns the compressed private key with scalar n.
func testKey(t *testing.T, n byte) *crypto.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = n
	key, err := crypto.PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return key
}

// displayHash returns a transaction id in display hex whose last byte is b.
func displayHash(b byte) string {
	return strings.Repeat("00", 31) + fmt.Sprintf("%02x", b)
}

// buildTx returns an unsigned transaction with two inputs and two outputs
// paying to the addresses of keys 1 and 2.
func buildTx(t *testing.T) *Transaction {
	t.Helper()
	tx := New()
	require.NoError(t, tx.AddInputHash(displayHash(1), 0))
	require.NoError(t, tx.AddInputHash(displayHash(2), 1))
	require.NoError(t, tx.AddOutputAddress(testKey(t, 1).Address(crypto.MainNet), 50000))
	require.NoError(t, tx.AddOutputAddress(testKey(t, 2).Address(crypto.MainNet), 1000))
	return tx
}
