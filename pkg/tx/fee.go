package tx

// Size model used by EstimateFee, in bytes. A signed P2PKH input is about
// 180 bytes and a P2PKH output 34.
const (
	estimatedInputSize  = 180
	estimatedOutputSize = 34
	estimatedOverhead   = 34
)

// EstimateFee returns an advisory fee for the transaction once its inputs
// are signed.
//
// The estimated size is rounded up to a whole kilobyte (1000 bytes) and
// charged feePerKb per kilobyte.
func (t *Transaction) EstimateFee(feePerKb uint64) uint64 {
	return EstimateFee(uint(len(t.Ins)), uint(len(t.Outs)), feePerKb)
}

// EstimateFee returns the advisory fee for a transaction with the given
// number of inputs and outputs.
func EstimateFee(numInputs, numOutputs uint, feePerKb uint64) uint64 {
	size := estimatedInputSize*uint64(numInputs) + estimatedOutputSize*uint64(numOutputs) + estimatedOverhead
	kb := (size + 999) / 1000
	return kb * feePerKb
}
