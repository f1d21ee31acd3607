package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents standardized error codes for ledger operations
type ErrorCode string

const (
	// Validation errors
	ErrCodeInvalidTransaction   ErrorCode = "invalid_transaction"
	ErrCodeInvalidSignature     ErrorCode = "invalid_signature"
	ErrCodeInvalidAmount        ErrorCode = "invalid_amount"
	ErrCodeDuplicateTransaction ErrorCode = "duplicate_transaction"

	// System errors
	ErrCodeMempoolFull  ErrorCode = "mempool_full"
	ErrCodePipelineFull ErrorCode = "pipeline_full"
	ErrCodeMiningBusy   ErrorCode = "mining_busy"
	ErrCodeMiningHalted ErrorCode = "mining_halted"
	ErrCodeCorruption   ErrorCode = "chain_corrupted"
)

// Error message constants - user-friendly and concise
const (
	ErrMsgInvalidTransaction   = "Transaction data is invalid"
	ErrMsgInvalidSignature     = "Transaction signature is invalid"
	ErrMsgInvalidAmount        = "Amount is invalid or zero"
	ErrMsgDuplicateTransaction = "This transaction already exists"
)

// ErrMiningHalted is returned by Mine once chain corruption has been
// detected. Block production stays halted until operator intervention.
var ErrMiningHalted = errors.New("mining halted: chain corruption detected")

// ErrMempoolFull is transient backpressure from the admission pool. Unlike
// a ValidationError the submission is not malformed; the caller may retry
// once capacity frees.
var ErrMempoolFull = errors.New("mempool_full: transaction pool is at capacity")

// ValidationError is a rejection at the admission boundary. It is surfaced
// to the caller and never retried automatically.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates a new ValidationError
func NewValidation(code ErrorCode, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// CorruptionError reports a hash or linkage mismatch found during chain
// verification. Index names the first offending block.
type CorruptionError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s: block %d: %s", ErrCodeCorruption, e.Index, e.Reason)
}

// NewCorruption creates a new CorruptionError
func NewCorruption(index int, format string, args ...interface{}) *CorruptionError {
	return &CorruptionError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

// ConcurrencyError means exclusive access could not be acquired within the
// bounded wait. Transient; the caller may retry.
type ConcurrencyError struct {
	Op string `json:"op"`
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s: could not acquire exclusive access for %s", ErrCodeMiningBusy, e.Op)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCorruption reports whether err is a CorruptionError
func IsCorruption(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}

// IsConcurrency reports whether err is a ConcurrencyError
func IsConcurrency(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
