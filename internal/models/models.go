package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the identity and financial state of the signed-in party.
// It lives for the duration of a session and is reset on logout.
type UserProfile struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Balance             int64     `json:"balance"`
	Role                string    `json:"role"`
	KYCStatus           string    `json:"kyc_status"`
	IsBiometricsEnabled bool      `json:"is_biometrics_enabled"`
	PINCreated          bool      `json:"pin_created"`
	CreatedAt           time.Time `json:"created_at"`
}

// Transaction is an immutable record of one balance-affecting event.
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Recipient   string    `json:"recipient,omitempty"`
	Sender      string    `json:"sender,omitempty"`
	Category    string    `json:"category"`
}

// Alert is a security notice shown in the security center. Read-only.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // INFO, WARNING or DANGER
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionID generates a history entry id. Collision probability is
// ignored, matching the demo semantics.
func NewTransactionID() string {
	return "tx_" + strings.Split(uuid.NewString(), "-")[0]
}
