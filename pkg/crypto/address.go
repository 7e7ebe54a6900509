package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// ErrInvalidAddress is returned when an address fails to decode.
var ErrInvalidAddress = errors.New("invalid address")

// Network names a set of chain parameters. The parameters carry the version
// bytes that tag addresses and WIF keys.
type Network struct {
	Name   string
	Params *chaincfg.Params
}

var (
	MainNet = &Network{Name: "main", Params: &chaincfg.MainNetParams}
	TestNet = &Network{Name: "test", Params: &chaincfg.TestNet3Params}

	networks = []*Network{MainNet, TestNet}
)

// NetworkByName returns the network registered under name.
func NetworkByName(name string) (*Network, error) {
	for _, n := range networks {
		if n.Name == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("unknown network %q", name)
}

// networkForWIF returns the network a decoded WIF key was encoded for.
func networkForWIF(wif *btcutil.WIF) (*Network, error) {
	for _, n := range networks {
		if wif.IsForNet(n.Params) {
			return n, nil
		}
	}
	return nil, errors.New("unknown WIF version byte")
}

// Hash160 computes RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sha := sha256.Sum256(b)
	h := ripemd160.New()
	_, _ = h.Write(sha[:])
	return h.Sum(nil)
}

// DoubleSHA256 computes SHA256(SHA256(b)).
func DoubleSHA256(b []byte) [32]byte {
	return chainhash.DoubleHashH(b)
}

// ParseAddress decodes a base58check address on net.
//
// Only the two legacy kinds are accepted, so the result is always a
// *btcutil.AddressPubKeyHash or a *btcutil.AddressScriptHash. Segwit
// addresses and hex public keys are rejected, as is an address whose version
// byte belongs to another network.
func ParseAddress(addr string, net *Network) (btcutil.Address, error) {
	decoded, err := btcutil.DecodeAddress(addr, net.Params)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}

	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash:
	default:
		return nil, fmt.Errorf("%w %q: not a legacy address", ErrInvalidAddress, addr)
	}
	if !decoded.IsForNet(net.Params) {
		return nil, fmt.Errorf("%w %q: not valid on %s network", ErrInvalidAddress, addr, net.Name)
	}
	return decoded, nil
}

// PubKeyHashAddress returns the P2PKH address of a 20-byte public key hash.
func PubKeyHashAddress(hash []byte, net *Network) (string, error) {
	addr, err := btcutil.NewAddressPubKeyHash(hash, net.Params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return addr.EncodeAddress(), nil
}

// ScriptHashAddress returns the P2SH address of a serialized redeem script.
func ScriptHashAddress(redeemScript []byte, net *Network) string {
	// Fails only for a hash that is not 20 bytes.
	addr, _ := btcutil.NewAddressScriptHash(redeemScript, net.Params)
	return addr.EncodeAddress()
}
