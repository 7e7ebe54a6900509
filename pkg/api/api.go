// Package api provides the high-level hex-in, hex-out API over the tx
// package.
//
// This is the entry point used by the legacytx command. Every operation
// takes and returns transactions as hex strings so that intermediate state
// can be passed between processes, signers and machines:
//
//  1. CreateTransaction - Builds an unsigned transaction from a proposal
//  2. DecodeTransaction - Summarizes a transaction
//  3. GetSighash - Computes the signature hash for an input
//  4. SignInput / SignInputs - Signs P2PKH inputs
//  5. P2SHSign / ApplyMultisig - Collects and installs multisig signatures
//  6. ValidateSignature - Checks a signature against an input
//  7. EstimateFee - Advisory fee for a transaction shape
package api

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/suffix-labs/legacy-tx/pkg/bip21"
	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
	"github.com/suffix-labs/legacy-tx/pkg/tx"
)

// Client runs API operations for one network.
type Client struct {
	net      *crypto.Network
	logger   *slog.Logger
	feePerKb uint64
}

// New creates a Client. A nil logger discards output.
func New(net *crypto.Network, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{net: net, logger: logger, feePerKb: tx.DefaultFeePerKb}
}

// WithFeePerKb sets the fee rate used for the estimate in summaries.
func (c *Client) WithFeePerKb(feePerKb uint64) *Client {
	c.feePerKb = feePerKb
	return c
}

// Network returns the client's network.
func (c *Client) Network() *crypto.Network {
	return c.net
}

// Input is a previous output to spend.
type Input struct {
	Outpoint string  // "hash:index", hash in display order
	Sequence *uint32 // nil = tx.DefaultSequence
}

// Output pays Value base units to Address.
type Output struct {
	Address string
	Value   uint64
}

// TransactionProposal contains all inputs and outputs for a transaction.
type TransactionProposal struct {
	Inputs     []Input
	Outputs    []Output
	PaymentURI string  // Optional payment request adding further outputs
	LockTime   *uint32 // Optional nLockTime
}

// ============================================================================
// Construction
// ============================================================================

// CreateTransaction builds an unsigned transaction from a proposal and
// returns it hex-encoded.
//
// Outputs from the payment request URI follow the explicit outputs.
func (c *Client) CreateTransaction(proposal *TransactionProposal) (string, error) {
	t := c.newTx()
	if proposal.LockTime != nil {
		t.WithLockTime(*proposal.LockTime)
	}

	for i, input := range proposal.Inputs {
		if err := t.AddInputOutpoint(input.Outpoint); err != nil {
			return "", fmt.Errorf("failed to add input %d: %w", i, err)
		}
		if input.Sequence != nil {
			t.Ins[len(t.Ins)-1].Sequence = *input.Sequence
		}
	}

	for i, output := range proposal.Outputs {
		if err := t.AddOutputAddress(output.Address, output.Value); err != nil {
			return "", fmt.Errorf("failed to add output %d: %w", i, err)
		}
	}

	if proposal.PaymentURI != "" {
		req, err := bip21.Parse(proposal.PaymentURI)
		if err != nil {
			return "", fmt.Errorf("invalid payment request: %w", err)
		}
		for i, p := range req.Payments {
			out, err := p.Output(c.net)
			if err != nil {
				return "", fmt.Errorf("payment request output %d: %w", i, err)
			}
			t.AddOutput(out)
		}
	}

	c.logger.Debug("created transaction",
		slog.String("txid", t.TxID()),
		slog.Int("inputs", len(t.Ins)),
		slog.Int("outputs", len(t.Outs)))
	return t.SerializeHex(), nil
}

// ============================================================================
// Inspection
// ============================================================================

// TransactionSummary is the decoded form of a transaction.
type TransactionSummary struct {
	TxID     string          `json:"txid"`
	Version  uint32          `json:"version"`
	LockTime uint32          `json:"locktime"`
	Size     int             `json:"size"`
	Inputs   []InputSummary  `json:"inputs"`
	Outputs  []OutputSummary `json:"outputs"`
	TotalOut uint64          `json:"total_out"`
	Fee      uint64          `json:"estimated_fee"` // Advisory, for the signed size
}

type InputSummary struct {
	Outpoint string `json:"outpoint"`
	Script   string `json:"script"`
	Sequence uint32 `json:"sequence"`
}

type OutputSummary struct {
	Value   uint64 `json:"value"`
	Script  string `json:"script"`
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

// DecodeTransaction decodes a hex transaction into a summary.
func (c *Client) DecodeTransaction(txHex string) (*TransactionSummary, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return nil, err
	}

	summary := &TransactionSummary{
		TxID:     t.TxID(),
		Version:  t.Version,
		LockTime: t.LockTime,
		Size:     t.SerializeSize(),
		Fee:      t.EstimateFee(c.feePerKb),
		Inputs:   make([]InputSummary, 0, len(t.Ins)),
		Outputs:  make([]OutputSummary, 0, len(t.Outs)),
	}
	for _, in := range t.Ins {
		summary.Inputs = append(summary.Inputs, InputSummary{
			Outpoint: in.PreviousOutpoint.String(),
			Script:   in.Script.Hex(),
			Sequence: in.Sequence,
		})
	}
	for _, out := range t.Outs {
		summary.Outputs = append(summary.Outputs, OutputSummary{
			Value:   out.Value,
			Script:  out.Script.Hex(),
			Type:    out.Script.Classify().String(),
			Address: out.Address,
		})
		summary.TotalOut += out.Value
	}
	return summary, nil
}

// TxID returns the id of a hex transaction in display order.
func (c *Client) TxID(txHex string) (string, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return "", err
	}
	return t.TxID(), nil
}

// ============================================================================
// Signing
// ============================================================================

// GetSighash computes the signature hash for an input.
//
// scriptHex is the connected script: the P2PKH locking script of the spent
// output, or the redeem script of a P2SH spend.
func (c *Client) GetSighash(txHex string, inputIndex int, scriptHex string, hashType tx.SigHashType) ([32]byte, error) {
	var sighash [32]byte

	t, err := c.parse(txHex)
	if err != nil {
		return sighash, err
	}
	s, err := script.FromHex(scriptHex)
	if err != nil {
		return sighash, err
	}

	sighash, err = t.SignatureHash(s, inputIndex, hashType)
	if err != nil {
		return sighash, fmt.Errorf("failed to compute sighash: %w", err)
	}
	return sighash, nil
}

// SignInput signs a P2PKH input and returns the updated transaction.
func (c *Client) SignInput(txHex string, inputIndex int, privateKey *crypto.PrivateKey, hashType tx.SigHashType) (string, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return "", err
	}
	if err := t.Sign(inputIndex, privateKey, hashType); err != nil {
		return "", fmt.Errorf("signing failed: %w", err)
	}
	return t.SerializeHex(), nil
}

// SignInputs signs every input that one of keys can spend according to
// records, keyed by "hash:index". Inputs without a match are left unsigned.
func (c *Client) SignInputs(txHex string, keys []*crypto.PrivateKey, records map[string]tx.OutputRecord, hashType tx.SigHashType) (string, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return "", err
	}
	if err := t.SignWithKeys(keys, records, hashType); err != nil {
		return "", fmt.Errorf("signing failed: %w", err)
	}
	return t.SerializeHex(), nil
}

// P2SHSign returns one hex signature for a P2SH input without modifying
// the transaction.
func (c *Client) P2SHSign(txHex string, inputIndex int, redeemHex string, privateKey *crypto.PrivateKey, hashType tx.SigHashType) (string, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return "", err
	}
	redeem, err := script.FromHex(redeemHex)
	if err != nil {
		return "", err
	}
	sig, err := t.P2SHSign(inputIndex, redeem, privateKey, hashType)
	if err != nil {
		return "", fmt.Errorf("signing failed: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// ApplyMultisig orders signatures collected from several signers by the
// redeem script's key order and installs the multisig unlocking script.
func (c *Client) ApplyMultisig(txHex string, inputIndex int, redeemHex string, signaturesHex []string) (string, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return "", err
	}
	redeem, err := script.FromHex(redeemHex)
	if err != nil {
		return "", err
	}

	sigs := make([][]byte, len(signaturesHex))
	for i, s := range signaturesHex {
		if sigs[i], err = hex.DecodeString(s); err != nil {
			return "", fmt.Errorf("signature %d: %w", i, err)
		}
	}

	ordered, err := t.OrderMultisigSignatures(inputIndex, redeem, sigs)
	if err != nil {
		return "", fmt.Errorf("combining signatures failed: %w", err)
	}
	if err := t.ApplyMultisigScript(inputIndex, redeem, ordered); err != nil {
		return "", err
	}
	return t.SerializeHex(), nil
}

// ValidateSignature checks a hex signature for an input under SIGHASH_ALL.
func (c *Client) ValidateSignature(txHex string, inputIndex int, scriptHex, signatureHex, pubKeyHex string) (bool, error) {
	t, err := c.parse(txHex)
	if err != nil {
		return false, err
	}
	s, err := script.FromHex(scriptHex)
	if err != nil {
		return false, err
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("decoding signature: %w", err)
	}
	pubBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return false, fmt.Errorf("decoding public key: %w", err)
	}
	pub, err := crypto.ParsePublicKey(pubBytes)
	if err != nil {
		return false, err
	}
	return t.ValidateSignature(inputIndex, s, sig, pub)
}

// ============================================================================
// Helper functions
// ============================================================================

// EstimateFee returns the advisory fee for numInputs inputs and numOutputs
// outputs at feePerKb.
func EstimateFee(numInputs, numOutputs int, feePerKb uint64) (uint64, error) {
	if numInputs < 0 || numOutputs < 0 {
		return 0, fmt.Errorf("input and output counts must be non-negative, got %d and %d",
			numInputs, numOutputs)
	}
	return tx.EstimateFee(uint(numInputs), uint(numOutputs), feePerKb), nil
}

// ParsePaymentRequest parses a BIP 21 payment request URI.
func ParsePaymentRequest(uri string) (*bip21.PaymentRequest, error) {
	return bip21.Parse(uri)
}

func (c *Client) newTx() *tx.Transaction {
	return tx.New().WithNetwork(c.net).WithLogger(c.logger)
}

func (c *Client) parse(txHex string) (*tx.Transaction, error) {
	t, err := tx.DeserializeHex(txHex)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	return t.WithNetwork(c.net).WithLogger(c.logger), nil
}
