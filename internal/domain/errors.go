package domain

import "errors"

// Error taxonomy surfaced by the auth flow, ledger and gateway boundary.
// All of these are recoverable: the caller stays where it is and may retry.
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrPINMismatch        = errors.New("incorrect PIN")
	ErrPINConfirmMismatch = errors.New("PINs do not match")
	ErrGatewayFailure     = errors.New("gateway failure")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)
