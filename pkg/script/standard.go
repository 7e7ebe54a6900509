package script

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
)

// ErrNoAddress is returned by Address for scripts that do not pay to a
// single address.
var ErrNoAddress = errors.New("script has no address form")

// Class identifies a standard script template.
type Class int

const (
	NonStandard Class = iota
	PubKey            // <pubkey> OP_CHECKSIG
	PubKeyHash        // OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG
	ScriptHash        // OP_HASH160 <20> OP_EQUAL
	Multisig          // OP_m <pubkey>... OP_n OP_CHECKMULTISIG
	NullData          // OP_RETURN <data>...
)

// classes maps txscript's classes onto the legacy templates. Witness and
// taproot outputs have no legacy form and classify as NonStandard.
var classes = map[txscript.ScriptClass]Class{
	txscript.PubKeyTy:     PubKey,
	txscript.PubKeyHashTy: PubKeyHash,
	txscript.ScriptHashTy: ScriptHash,
	txscript.MultiSigTy:   Multisig,
	txscript.NullDataTy:   NullData,
}

var classNames = map[Class]string{
	NonStandard: "nonstandard",
	PubKey:      "pubkey",
	PubKeyHash:  "pubkeyhash",
	ScriptHash:  "scripthash",
	Multisig:    "multisig",
	NullData:    "nulldata",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// PayToPubKeyHash builds the locking script
// OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func PayToPubKeyHash(hash []byte) (Script, error) {
	// The network only tags the encoded address, not the script.
	addr, err := btcutil.NewAddressPubKeyHash(hash, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("pubkey hash: %w", err)
	}
	return payTo(addr)
}

// PayToScriptHash builds the locking script OP_HASH160 <hash> OP_EQUAL.
func PayToScriptHash(hash []byte) (Script, error) {
	addr, err := btcutil.NewAddressScriptHashFromHash(hash, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("script hash: %w", err)
	}
	return payTo(addr)
}

// PayToAddress builds the locking script for a base58check address on net.
func PayToAddress(addr string, net *crypto.Network) (Script, error) {
	decoded, err := crypto.ParseAddress(addr, net)
	if err != nil {
		return nil, err
	}
	return payTo(decoded)
}

func payTo(addr btcutil.Address) (Script, error) {
	s, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("building locking script: %w", err)
	}
	return Script(s), nil
}

// SigPubKey builds the P2PKH unlocking script <signature> <pubkey>.
func SigPubKey(signature, pubkey []byte) (Script, error) {
	return FromPushes(signature, pubkey)
}

// MultisigUnlock builds the P2SH multisig unlocking script
// OP_0 <sig1> ... <sigN> <redeemScript>.
//
// The leading OP_0 is consumed by CHECKMULTISIG, which pops one element more
// than it uses.
//
// See: https://bitcoin.stackexchange.com/questions/38037/
func MultisigUnlock(signatures [][]byte, redeemScript Script) (Script, error) {
	b := txscript.NewScriptBuilder().AddOp(txscript.OP_0)
	for _, sig := range signatures {
		b.AddData(sig)
	}
	s, err := b.AddData(redeemScript).Script()
	if err != nil {
		return nil, fmt.Errorf("building multisig unlocking script: %w", err)
	}
	return Script(s), nil
}

// NewMultisig builds the m-of-n redeem script
// OP_m <pubkey1> ... <pubkeyN> OP_n OP_CHECKMULTISIG.
//
// Each key keeps the serialization it is given.
func NewMultisig(m int, pubkeys [][]byte) (Script, error) {
	n := len(pubkeys)
	if n == 0 || n > 16 {
		return nil, fmt.Errorf("multisig needs 1 to 16 public keys, got %d", n)
	}
	if m < 1 || m > n {
		return nil, fmt.Errorf("multisig threshold %d out of range 1..%d", m, n)
	}

	keys := make([]*btcutil.AddressPubKey, n)
	for i, pk := range pubkeys {
		key, err := btcutil.NewAddressPubKey(pk, &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("public key %d: %w", i, err)
		}
		keys[i] = key
	}

	s, err := txscript.MultiSigScript(keys, m)
	if err != nil {
		return nil, fmt.Errorf("building multisig script: %w", err)
	}
	return Script(s), nil
}

// MultisigPubKeys parses an m-of-n redeem script, returning the threshold and
// the public keys in script order.
func (s Script) MultisigPubKeys() (int, [][]byte, error) {
	if txscript.GetScriptClass(s) != txscript.MultiSigTy {
		return 0, nil, errors.New("not a multisig script")
	}
	_, m, err := txscript.CalcMultiSigStats(s)
	if err != nil {
		return 0, nil, fmt.Errorf("reading multisig threshold: %w", err)
	}
	// OP_m and OP_n are small integers, so only the keys carry data.
	pubkeys, err := txscript.PushedData(s)
	if err != nil {
		return 0, nil, fmt.Errorf("reading multisig keys: %w", err)
	}
	return m, pubkeys, nil
}

// Classify returns the standard template the script matches.
func (s Script) Classify() Class {
	return classes[txscript.GetScriptClass(s)]
}

// Address recovers the address a P2PKH, P2SH or P2PK locking script pays to.
// A P2PK script yields the P2PKH address of its key.
func (s Script) Address(net *crypto.Network) (string, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(s, net.Params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	if len(addrs) != 1 {
		return "", ErrNoAddress
	}

	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy:
		return addrs[0].EncodeAddress(), nil
	case txscript.PubKeyTy:
		if pk, ok := addrs[0].(*btcutil.AddressPubKey); ok {
			return pk.AddressPubKeyHash().EncodeAddress(), nil
		}
	}
	return "", ErrNoAddress
}

// ScriptHashAddress returns the P2SH address of a redeem script.
func (s Script) ScriptHashAddress(net *crypto.Network) string {
	return crypto.ScriptHashAddress(s, net)
}
