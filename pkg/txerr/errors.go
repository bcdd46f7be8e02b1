/*
Package txerr contains the error taxonomy shared by transaction composition,
verification and confirmation code. Errors produced by this module's own
checks match (via errors.Is) exactly one of the category errors below.
Transport and storage failures (HTTP errors, I/O) are passed through wrapped
but without a category, Category returns nil for them.
*/
package txerr

import (
	"errors"
	"fmt"
)

// Error categories.
var (
	// ErrConfiguration is returned for invalid settings like too high PoW
	// difficulty or incomplete fee settings where they're required.
	ErrConfiguration = errors.New("configuration error")
	// ErrEncoding is returned when an envelope, body or block can't be
	// serialized or deserialized.
	ErrEncoding = errors.New("encoding error")
	// ErrCrypto is returned for malformed keys and signatures and for
	// signatures that don't verify.
	ErrCrypto = errors.New("crypto error")
	// ErrNetworkRejection is returned when the node refuses a transaction or
	// reports an error status for it.
	ErrNetworkRejection = errors.New("rejected by node")
	// ErrTimeout is returned when polling budget is exhausted.
	ErrTimeout = errors.New("timeout")
	// ErrConsensus is returned when a block fails quorum validation or is
	// not accepted by the chain.
	ErrConsensus = errors.New("consensus failure")
)

// Refined errors, each one wraps its category.
var (
	ErrDifficultyTooHigh = fmt.Errorf("%w: PoW difficulty is too high", ErrConfiguration)
	ErrFeeNotConverged   = fmt.Errorf("%w: fee computation doesn't converge", ErrEncoding)
	ErrStatusTimeout     = fmt.Errorf("%w: tx status", ErrTimeout)
	ErrNextBlockTimeout  = fmt.Errorf("%w: next block", ErrTimeout)
	ErrVerifyTimeout     = fmt.Errorf("%w: block verification", ErrTimeout)
	ErrBlockRejected     = fmt.Errorf("%w: tx block is rejected", ErrConsensus)
	ErrBlockInvalid      = fmt.Errorf("%w: block is invalid", ErrConsensus)
	ErrInvalidSignature  = fmt.Errorf("%w: invalid signature", ErrCrypto)
)

var categories = []error{
	ErrConfiguration,
	ErrEncoding,
	ErrCrypto,
	ErrNetworkRejection,
	ErrTimeout,
	ErrConsensus,
}

// Category returns the category error err matches or nil if it has none.
func Category(err error) error {
	for _, c := range categories {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// RejectionError is returned when the node explicitly refuses a transaction,
// Msg is the message supplied by the node.
type RejectionError struct {
	Msg string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if e.Msg == "" {
		return ErrNetworkRejection.Error()
	}
	return ErrNetworkRejection.Error() + ": " + e.Msg
}

// Unwrap makes RejectionError match ErrNetworkRejection.
func (e *RejectionError) Unwrap() error {
	return ErrNetworkRejection
}

// Reject returns a RejectionError with the given node message.
func Reject(msg string) error {
	return &RejectionError{Msg: msg}
}
