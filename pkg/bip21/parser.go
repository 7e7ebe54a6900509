// Package bip21 implements the BIP 21 payment request URI format.
//
// A payment request URI encodes a recipient address and an optional amount
// so it can be shared as a link or QR code.
//
// URI Format:
//
//	bitcoin:<address>?amount=<amount>&label=<label>&message=<message>
//
// Extension: BIP 21 has exactly one recipient. This package also accepts
// several, using the indexed parameters ZIP 321 defines for the same URI
// shape:
//
//	bitcoin:?address.1=<addr1>&amount.1=<amt1>&address.2=<addr2>&amount.2=<amt2>
//
// Plain BIP 21 wallets do not understand indexed requests. Encode emits them
// only for more than one payment, so a single-payment request always
// encodes as plain BIP 21.
//
// Amounts are decimal coin values with at most eight fractional digits and
// are held as integer base units (satoshis), never as floating point.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0021.mediawiki
package bip21

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/script"
	"github.com/suffix-labs/legacy-tx/pkg/tx"
)

// Scheme is the URI scheme prefix.
const Scheme = "bitcoin:"

// BaseUnitsPerCoin is the number of satoshis in one coin.
const BaseUnitsPerCoin = 100_000_000

// ErrNoAmount is returned by Payment.Output when the payment leaves the
// amount to the payer.
var ErrNoAmount = errors.New("payment has no amount")

// PaymentRequest represents a parsed payment request.
type PaymentRequest struct {
	Payments []Payment // List of payment recipients
}

// Payment represents a single payment within a request.
type Payment struct {
	Address string  // Base58check address
	Amount  *uint64 // Amount in satoshis (nil = payer specifies)
	Label   *string // Optional label for recipient
	Message *string // Optional message to display to user
}

// Parse parses a payment request URI.
//
// URI formats supported:
//  1. Single recipient (BIP 21): bitcoin:<address>?amount=1.5&label=shop
//  2. Multiple recipients (indexed extension, see the package doc):
//     bitcoin:?address.1=addr1&amount.1=1.0&address.2=addr2
//
// Unknown parameters prefixed with "req-" are required by the sender and
// make the request unparseable, as BIP 21 mandates. Other unknown
// parameters are ignored.
func Parse(uri string) (*PaymentRequest, error) {
	if len(uri) >= len(Scheme) && strings.EqualFold(uri[:len(Scheme)], Scheme) {
		uri = uri[len(Scheme):]
	}

	baseAddress, query, _ := strings.Cut(uri, "?")
	if strings.Contains(baseAddress, "=") {
		// A bare query without base address
		baseAddress, query = "", baseAddress
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	if err := checkRequired(params); err != nil {
		return nil, err
	}

	var payments []Payment
	if hasIndexedParams(params) {
		payments, err = parseIndexedPayments(params)
		if err != nil {
			return nil, err
		}
		if baseAddress != "" {
			return nil, errors.New("base address cannot be combined with indexed payments")
		}
	} else {
		payment, err := parseSinglePayment(baseAddress, params)
		if err != nil {
			return nil, err
		}
		payments = []Payment{payment}
	}

	for i, p := range payments {
		if p.Address == "" {
			return nil, fmt.Errorf("payment %d missing address", i)
		}
	}

	return &PaymentRequest{
		Payments: payments,
	}, nil
}

// Output builds the transaction output paying p on net.
func (p Payment) Output(net *crypto.Network) (tx.TxOut, error) {
	if p.Amount == nil {
		return tx.TxOut{}, fmt.Errorf("%s: %w", p.Address, ErrNoAmount)
	}
	lock, err := script.PayToAddress(p.Address, net)
	if err != nil {
		return tx.TxOut{}, err
	}
	return tx.TxOut{Value: *p.Amount, Script: lock, Address: p.Address}, nil
}

// checkRequired rejects "req-" parameters this parser does not understand.
func checkRequired(params url.Values) error {
	for key := range params {
		if strings.HasPrefix(key, "req-") {
			return fmt.Errorf("unsupported required parameter %q", key)
		}
	}
	return nil
}

// parseSinglePayment parses a single-recipient payment request.
func parseSinglePayment(address string, params url.Values) (Payment, error) {
	payment := Payment{
		Address: address,
	}

	if addrParam := params.Get("address"); addrParam != "" {
		payment.Address = addrParam
	}

	if amountStr := params.Get("amount"); amountStr != "" {
		amount, err := ParseAmount(amountStr)
		if err != nil {
			return payment, fmt.Errorf("invalid amount: %w", err)
		}
		payment.Amount = &amount
	}

	if label := params.Get("label"); label != "" {
		payment.Label = &label
	}

	if message := params.Get("message"); message != "" {
		payment.Message = &message
	}

	return payment, nil
}

// parseIndexedPayments parses multiple recipients using indexed parameters.
//
// Indices run from 0 to 9999. Index 0 can be written without suffix.
func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := make(map[int]bool)
	if params.Get("address") != "" {
		indices[0] = true
	}
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = true
		}
	}

	payments := make(map[int]Payment, len(indices))
	for idx := range indices {
		payment := Payment{}

		address := getIndexedParam(params, "address", idx)
		if address == "" {
			return nil, fmt.Errorf("payment %d missing address", idx)
		}
		payment.Address = address

		if amountStr := getIndexedParam(params, "amount", idx); amountStr != "" {
			amount, err := ParseAmount(amountStr)
			if err != nil {
				return nil, fmt.Errorf("payment %d invalid amount: %w", idx, err)
			}
			payment.Amount = &amount
		}

		if label := getIndexedParam(params, "label", idx); label != "" {
			payment.Label = &label
		}

		if message := getIndexedParam(params, "message", idx); message != "" {
			payment.Message = &message
		}

		payments[idx] = payment
	}

	result := make([]Payment, 0, len(payments))
	for i := 0; i < 10000; i++ {
		if payment, exists := payments[i]; exists {
			result = append(result, payment)
		}
	}

	return result, nil
}

// hasIndexedParams checks if the query contains indexed parameters.
func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if extractIndex(key) >= 0 {
			return true
		}
	}
	return false
}

// extractIndex extracts the index from a parameter name.
//
// Examples:
//   - "address.1" -> 1
//   - "amount.42" -> 42
//   - "address" -> -1 (no index)
//
// Returns -1 if no index found.
func extractIndex(paramName string) int {
	_, suffix, ok := strings.Cut(paramName, ".")
	if !ok {
		return -1
	}

	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || idx > 9999 {
		return -1
	}

	return idx
}

// getIndexedParam gets a parameter value for a specific index.
//
// For index 0, tries both "name" and "name.0".
func getIndexedParam(params url.Values, name string, index int) string {
	if index == 0 {
		if val := params.Get(name); val != "" {
			return val
		}
	}

	return params.Get(fmt.Sprintf("%s.%d", name, index))
}

// ParseAmount parses a decimal coin amount into satoshis.
//
// Valid formats:
//   - "1.5" (decimal coins)
//   - "0.00000001" (one satoshi)
//   - "1000" (whole coins)
//
// Signs, exponents and more than eight fractional digits are rejected.
func ParseAmount(amountStr string) (uint64, error) {
	whole, frac, hasPoint := strings.Cut(amountStr, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("empty amount %q", amountStr)
	}
	if hasPoint && frac == "" {
		return 0, fmt.Errorf("missing fractional digits in %q", amountStr)
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("more than 8 decimal places in %q", amountStr)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("not a valid number: %q", amountStr)
	}

	var coins uint64
	if whole != "" {
		var err error
		coins, err = strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a valid number: %w", err)
		}
	}
	if coins > (^uint64(0))/BaseUnitsPerCoin {
		return 0, fmt.Errorf("amount %q overflows", amountStr)
	}

	var units uint64
	if frac != "" {
		// Left-aligned: "5" is 50000000 satoshis
		units, _ = strconv.ParseUint(frac+strings.Repeat("0", 8-len(frac)), 10, 64)
	}

	total := coins*BaseUnitsPerCoin + units
	if total < units {
		return 0, fmt.Errorf("amount %q overflows", amountStr)
	}
	return total, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ============================================================================
// Helper functions for creating payment request URIs
// ============================================================================

// Encode creates a URI from a PaymentRequest.
//
// This is the inverse of Parse.
//
// Example:
//
//	amount := uint64(150000000)
//	req := &PaymentRequest{Payments: []Payment{{Address: "1Foo", Amount: &amount}}}
//	uri := req.Encode() // "bitcoin:1Foo?amount=1.5"
func (req *PaymentRequest) Encode() string {
	if len(req.Payments) == 0 {
		return Scheme
	}

	if len(req.Payments) == 1 {
		return encodeSinglePayment(req.Payments[0])
	}

	return encodeMultiplePayments(req.Payments)
}

// encodeSinglePayment encodes a single payment as a URI.
func encodeSinglePayment(p Payment) string {
	uri := Scheme + p.Address

	params := url.Values{}
	if p.Amount != nil {
		params.Add("amount", FormatAmount(*p.Amount))
	}
	if p.Label != nil {
		params.Add("label", *p.Label)
	}
	if p.Message != nil {
		params.Add("message", *p.Message)
	}

	if len(params) > 0 {
		uri += "?" + params.Encode()
	}

	return uri
}

// encodeMultiplePayments encodes multiple payments with the indexed
// parameter extension, numbering them from 0.
func encodeMultiplePayments(payments []Payment) string {
	params := url.Values{}

	for i, p := range payments {
		idx := fmt.Sprintf(".%d", i)

		params.Add("address"+idx, p.Address)

		if p.Amount != nil {
			params.Add("amount"+idx, FormatAmount(*p.Amount))
		}
		if p.Label != nil {
			params.Add("label"+idx, *p.Label)
		}
		if p.Message != nil {
			params.Add("message"+idx, *p.Message)
		}
	}

	return Scheme + "?" + params.Encode()
}

// FormatAmount formats satoshis as a decimal coin amount without trailing
// zeros.
func FormatAmount(units uint64) string {
	str := fmt.Sprintf("%d.%08d", units/BaseUnitsPerCoin, units%BaseUnitsPerCoin)

	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")

	return str
}
