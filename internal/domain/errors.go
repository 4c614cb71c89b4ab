package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// PreconditionError is a client-side validation failure. It is raised before
// any network or chain call is issued and is never retried.
type PreconditionError struct {
	Field  string // offending input, e.g. "price", "chain_id"
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed [" + e.Field + "]: " + e.Reason
}

func (e *PreconditionError) IsRetriable() bool {
	return false
}

// NewPreconditionError creates a precondition error for a field.
func NewPreconditionError(field, reason string) *PreconditionError {
	return &PreconditionError{Field: field, Reason: reason}
}

// RejectionError carries a backend business rejection verbatim
// (insufficient balance, invalid parameters per server validation).
type RejectionError struct {
	Op      string // "create_order", "withdraw", ...
	Message string // server-provided reason
}

func (e *RejectionError) Error() string {
	return e.Op + " rejected: " + e.Message
}

func (e *RejectionError) IsRetriable() bool {
	return false
}

// NetworkError represents a transport failure that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "connect", "read", "write")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// PartialDepositError means the on-chain transfer was mined but registering
// it with the backend failed. Re-submitting automatically would risk a
// duplicate on-chain transfer, so this is surfaced for manual follow-up.
type PartialDepositError struct {
	TxHash string
	Err    error
}

func (e *PartialDepositError) Error() string {
	return "on-chain transfer " + e.TxHash + " succeeded but backend registration failed: " + e.Err.Error()
}

func (e *PartialDepositError) IsRetriable() bool {
	return false
}

func (e *PartialDepositError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotAuthenticated is returned when an action requires a login session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrWalletNotConnected is returned when no wallet signer is available.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrChainMismatch is returned when the wallet's active chain differs
	// from the selected chain config. The user must switch chains.
	ErrChainMismatch = errors.New("wallet is on the wrong chain")

	// ErrSignatureRejected is a user abort of a wallet prompt. Treated as a
	// normal cancellation, not a fault.
	ErrSignatureRejected = errors.New("signature rejected by user")

	// ErrOrderNotFound is returned when cancelling an unknown order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotOpen is returned when cancelling an order already in a
	// terminal state.
	ErrOrderNotOpen = errors.New("order is not open")

	// ErrUnknownChain is returned when no enabled chain config matches.
	ErrUnknownChain = errors.New("unknown or disabled chain")
)
