package tx

import (
	"fmt"
	"log/slog"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// Sign signs input index as a pay-to-pubkey-hash spend and installs the
// unlocking script <signature> <pubkey> on it.
//
// The connected script is the P2PKH locking script of the key's own address,
// so the key must control the output the input spends. The signature format
// is DER-encoded ECDSA || hash type byte. Only input index is modified.
func (t *Transaction) Sign(index int, key *crypto.PrivateKey, hashType SigHashType) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}

	pub := key.PublicKey()
	lock, err := script.PayToPubKeyHash(pub.Hash160())
	if err != nil {
		return fmt.Errorf("building locking script: %w", err)
	}

	sig, err := t.signInput(index, lock, key, hashType)
	if err != nil {
		return err
	}

	unlock, err := script.SigPubKey(sig, pub.Bytes())
	if err != nil {
		return fmt.Errorf("building unlocking script: %w", err)
	}
	t.Ins[index].Script = unlock
	t.log().Debug("signed input",
		slog.Int("index", index),
		slog.String("outpoint", t.Ins[index].PreviousOutpoint.String()),
		slog.String("address", pub.Address(t.network())),
		slog.Int("hash_type", int(hashType)))
	return nil
}

// SignWithKeys signs every input it has a key for.
//
// records maps "hash:index" of each spent output to its description. An
// input is signed when its record exists and one of keys derives the
// record's address. Inputs without a record or a matching key are left
// untouched; that is not an error.
func (t *Transaction) SignWithKeys(keys []*crypto.PrivateKey, records map[string]OutputRecord, hashType SigHashType) error {
	net := t.network()
	byAddress := make(map[string]*crypto.PrivateKey, len(keys))
	for _, key := range keys {
		byAddress[key.Address(net)] = key
	}

	for i := range t.Ins {
		outpoint := t.Ins[i].PreviousOutpoint.String()
		record, ok := records[outpoint]
		if !ok {
			t.log().Debug("skipping input without output record",
				slog.Int("index", i), slog.String("outpoint", outpoint))
			continue
		}
		key, ok := byAddress[record.Address]
		if !ok {
			t.log().Debug("skipping input without matching key",
				slog.Int("index", i), slog.String("address", record.Address))
			continue
		}
		if err := t.Sign(i, key, hashType); err != nil {
			return fmt.Errorf("signing input %d: %w", i, err)
		}
	}
	return nil
}

// P2SHSign returns a signature for input index over redeemScript without
// installing anything. Collect one per required key and pass them to
// ApplyMultisigScript.
func (t *Transaction) P2SHSign(index int, redeemScript script.Script, key *crypto.PrivateKey, hashType SigHashType) ([]byte, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	return t.signInput(index, redeemScript, key, hashType)
}

// ValidateSignature reports whether signature is valid for input index with
// connected script s under publicKey.
//
// The hash is always computed as SIGHASH_ALL; the hash type byte carried by
// the signature is not consulted. The signature may be given with or without
// that trailing byte. A signature that is not DER is an error.
func (t *Transaction) ValidateSignature(index int, s script.Script, signature []byte, publicKey *crypto.PublicKey) (bool, error) {
	digest, err := t.SignatureHash(s, index, SigHashAll)
	if err != nil {
		return false, err
	}
	return crypto.VerifySignature(publicKey, digest, stripHashType(signature))
}

func (t *Transaction) signInput(index int, connected script.Script, key *crypto.PrivateKey, hashType SigHashType) ([]byte, error) {
	digest, err := t.SignatureHash(connected, index, hashType)
	if err != nil {
		return nil, err
	}

	der, err := key.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return append(der, byte(hashType)), nil
}

func (t *Transaction) checkIndex(index int) error {
	if index < 0 || index >= len(t.Ins) {
		return argumentError("input index",
			fmt.Sprintf("%d out of bounds (have %d inputs)", index, len(t.Ins)), nil)
	}
	return nil
}

// stripHashType removes a trailing hash type byte from a DER signature.
//
// A DER signature is 0x30 <len> <body>, so its length is exactly len+2;
// one byte more means a hash type byte was appended.
func stripHashType(sig []byte) []byte {
	if len(sig) >= 2 && sig[0] == 0x30 && int(sig[1])+3 == len(sig) {
		return sig[:len(sig)-1]
	}
	return sig
}
