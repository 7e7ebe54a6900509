package tx

import (
	"fmt"
	"log/slog"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
)

// ApplyMultisigScript installs the P2SH multisig unlocking script
// OP_0 <sig1> ... <sigN> <redeemScript> on input index.
//
// Signatures must already be in the order of the public keys in
// redeemScript; OrderMultisigSignatures arranges them.
func (t *Transaction) ApplyMultisigScript(index int, redeemScript script.Script, signatures [][]byte) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	if len(signatures) == 0 {
		return argumentError("signatures", "none supplied", nil)
	}

	unlock, err := script.MultisigUnlock(signatures, redeemScript)
	if err != nil {
		return argumentError("signatures", "cannot build unlocking script", err)
	}
	t.Ins[index].Script = unlock
	t.log().Debug("installed multisig script",
		slog.Int("index", index),
		slog.Int("signatures", len(signatures)),
		slog.String("p2sh_address", redeemScript.ScriptHashAddress(t.network())))
	return nil
}

// OrderMultisigSignatures sorts signatures collected from several signers
// into the order of the public keys in redeemScript.
//
// Each signature is matched to a key by verifying it against the hash of
// input index under the hash type in its trailing byte. Signatures that
// match no key, or a key already matched, are rejected.
func (t *Transaction) OrderMultisigSignatures(index int, redeemScript script.Script, signatures [][]byte) ([][]byte, error) {
	_, pubkeyBytes, err := redeemScript.MultisigPubKeys()
	if err != nil {
		return nil, argumentError("redeem script", "not multisig", err)
	}

	pubkeys := make([]*crypto.PublicKey, len(pubkeyBytes))
	for i, b := range pubkeyBytes {
		if pubkeys[i], err = crypto.ParsePublicKey(b); err != nil {
			return nil, argumentError("redeem script", fmt.Sprintf("public key %d", i), err)
		}
	}

	slots := make([][]byte, len(pubkeys))
	for si, sig := range signatures {
		if len(sig) == 0 {
			return nil, argumentError("signatures", fmt.Sprintf("signature %d is empty", si), nil)
		}
		hashType := SigHashType(sig[len(sig)-1])
		digest, err := t.SignatureHash(redeemScript, index, hashType)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", si, err)
		}

		matched := false
		for ki, pub := range pubkeys {
			ok, err := crypto.VerifySignature(pub, digest, sig[:len(sig)-1])
			if err != nil {
				return nil, argumentError("signatures", fmt.Sprintf("signature %d", si), err)
			}
			if !ok {
				continue
			}
			if slots[ki] != nil {
				return nil, argumentError("signatures",
					fmt.Sprintf("signature %d duplicates key %d", si, ki), nil)
			}
			slots[ki] = sig
			matched = true
			break
		}
		if !matched {
			return nil, argumentError("signatures",
				fmt.Sprintf("signature %d matches no key in redeem script", si), nil)
		}
	}

	ordered := make([][]byte, 0, len(signatures))
	for _, sig := range slots {
		if sig != nil {
			ordered = append(ordered, sig)
		}
	}
	return ordered, nil
}
