// Package crypto implements secp256k1 ECDSA signing for legacy inputs.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: compressed 33-byte (0x02/0x03 prefix + x) or
//     uncompressed 65-byte (0x04 prefix + x + y)
//   - Signatures: DER-encoded, low-S, deterministic nonces (RFC 6979)
//
// The compression flag travels with the private key because it selects which
// public key serialization, and therefore which address, the key controls.
package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidWIF is returned when a WIF string cannot be decoded.
var ErrInvalidWIF = errors.New("invalid WIF")

// PrivateKey wraps secp256k1 private key
type PrivateKey struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// PublicKey wraps secp256k1 public key
type PublicKey struct {
	key        *secp256k1.PublicKey
	compressed bool
}

// ParsePrivateKeyWIF parses a WIF-encoded private key.
//
// WIF format: version_byte || private_key (32 bytes) || [0x01] || checksum (4 bytes)
//
// The optional 0x01 suffix marks a key whose public key is serialized
// compressed. The version byte identifies the network.
func ParsePrivateKeyWIF(wif string) (*PrivateKey, *Network, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWIF, err)
	}

	net, err := networkForWIF(decoded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWIF, err)
	}
	if decoded.PrivKey.Key.IsZero() {
		return nil, nil, fmt.Errorf("%w: key is zero modulo the curve order", ErrInvalidWIF)
	}

	return &PrivateKey{key: decoded.PrivKey, compressed: decoded.CompressPubKey}, net, nil
}

// PrivateKeyFromBytes creates a private key from raw bytes. The key's public
// key serializes compressed.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}

	key := secp256k1.PrivKeyFromBytes(keyBytes)
	if key.Key.IsZero() {
		return nil, errors.New("private key is zero modulo the curve order")
	}
	return &PrivateKey{key: key, compressed: true}, nil
}

// GeneratePrivateKey returns a new random compressed private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", err)
	}
	return &PrivateKey{key: key, compressed: true}, nil
}

// Uncompressed returns a copy of the key that serializes its public key
// uncompressed.
func (pk *PrivateKey) Uncompressed() *PrivateKey {
	return &PrivateKey{key: pk.key, compressed: false}
}

// Compressed reports whether the public key serializes compressed.
func (pk *PrivateKey) Compressed() bool {
	return pk.compressed
}

// Sign creates a DER-encoded ECDSA signature over a 32-byte digest.
func (pk *PrivateKey) Sign(hash [32]byte) ([]byte, error) {
	sig := ecdsa.Sign(pk.key, hash[:])
	return sig.Serialize(), nil
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey(), compressed: pk.compressed}
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// WIF encodes the key in Wallet Import Format for the given network.
func (pk *PrivateKey) WIF(net *Network) string {
	// Fails only for nil params.
	wif, _ := btcutil.NewWIF(pk.key, net.Params, pk.compressed)
	return wif.String()
}

// Address returns the pay-to-pubkey-hash address controlled by the key.
func (pk *PrivateKey) Address(net *Network) string {
	return pk.PublicKey().Address(net)
}

// SerializeCompressed returns the 33-byte compressed public key
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// Bytes returns the public key in the serialization selected by its
// compression flag.
func (pub *PublicKey) Bytes() []byte {
	if pub.compressed {
		return pub.key.SerializeCompressed()
	}
	return pub.key.SerializeUncompressed()
}

// Hash160 returns RIPEMD160(SHA256(Bytes())), the address digest.
func (pub *PublicKey) Hash160() []byte {
	return Hash160(pub.Bytes())
}

// Address returns the pay-to-pubkey-hash address for the key.
func (pub *PublicKey) Address(net *Network) string {
	addr, _ := PubKeyHashAddress(pub.Hash160(), net) // Hash160 is 20 bytes
	return addr
}

// ParsePublicKey parses a compressed or uncompressed public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 && len(pubKeyBytes) != 65 {
		return nil, fmt.Errorf("public key must be 33 or 65 bytes, got %d", len(pubKeyBytes))
	}

	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &PublicKey{key: pubKey, compressed: len(pubKeyBytes) == 33}, nil
}

// VerifySignature verifies a DER-encoded ECDSA signature over a digest.
//
// A signature that does not parse is an error; a well-formed signature that
// does not verify returns false.
func VerifySignature(pubkey *PublicKey, hash [32]byte, signature []byte) (bool, error) {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("failed to parse signature: %w", err)
	}

	return sig.Verify(hash[:], pubkey.key), nil
}
