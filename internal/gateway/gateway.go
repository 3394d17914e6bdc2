// Package gateway defines the payment-gateway boundary used for wallet
// funding. The contract is two single-shot operations: initialize a
// transaction for an amount, then verify it by reference.
package gateway

import "context"

// Gateway represents the external payment processor.
type Gateway interface {
	// InitializeTransaction opens a funding transaction and returns the
	// processor's reference.
	InitializeTransaction(ctx context.Context, email string, amount int64) (string, error)
	// VerifyTransaction reports whether the referenced transaction was
	// accepted by the processor.
	VerifyTransaction(ctx context.Context, reference string) (bool, error)
}
