package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashes(t *testing.T) {
	assert.Equal(t, "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb",
		hex.EncodeToString(Hash160(nil)))
	assert.Equal(t, btcutil.Hash160([]byte("abc")), Hash160([]byte("abc")))

	d := DoubleSHA256(nil)
	assert.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456",
		hex.EncodeToString(d[:]))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", MainNet)
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressPubKeyHash{}, addr)
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(addr.ScriptAddress()))

	addr, err = ParseAddress("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", MainNet)
	require.NoError(t, err)
	assert.IsType(t, &btcutil.AddressScriptHash{}, addr)
	assert.Equal(t, "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", addr.EncodeAddress())
}

func TestPubKeyHashAddress(t *testing.T) {
	hash, err := hex.DecodeString("751e76e8199196d454941c45d1b3a323f1433bd6")
	require.NoError(t, err)

	addr, err := PubKeyHashAddress(hash, MainNet)
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr)

	_, err = PubKeyHashAddress(hash[:19], MainNet)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestScriptHashAddress(t *testing.T) {
	redeem := []byte{0x51}
	p2sh := ScriptHashAddress(redeem, MainNet)
	assert.Equal(t, byte('3'), p2sh[0])

	addr, err := ParseAddress(p2sh, MainNet)
	require.NoError(t, err)
	assert.Equal(t, Hash160(redeem), addr.ScriptAddress())

	assert.Equal(t, byte('2'), ScriptHashAddress(redeem, TestNet)[0])
}

func TestParseAddressWrongNetwork(t *testing.T) {
	_, err := ParseAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", TestNet)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	testAddr := keyOne(t).Address(TestNet)
	assert.Contains(t, "mn", testAddr[:1])
	addr, err := ParseAddress(testAddr, TestNet)
	require.NoError(t, err)
	assert.IsType(t, &btcutil.AddressPubKeyHash{}, addr)

	_, err = ParseAddress(testAddr, MainNet)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestParseAddressRejects(t *testing.T) {
	for _, addr := range []string{
		"",
		"1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMJ",         // checksum
		"0OIl",                                       // alphabet
		base58.CheckEncode([]byte{1, 2, 3}, 0x00),    // short hash
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", // segwit
		// public key
		"0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
	} {
		_, err := ParseAddress(addr, MainNet)
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}

func TestNetworkLookup(t *testing.T) {
	n, err := NetworkByName("test")
	require.NoError(t, err)
	assert.Equal(t, TestNet, n)
	assert.Equal(t, byte(0x6f), n.Params.PubKeyHashAddrID)

	_, err = NetworkByName("regtest")
	assert.Error(t, err)
}
