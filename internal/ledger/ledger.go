// Package ledger holds the balance and transaction history for one
// authenticated session. History is append-only and ordered newest first;
// transactions are never mutated or deleted within a session.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/models"
)

// Entry describes one balance-affecting event to record.
type Entry struct {
	Type        string
	Amount      int64
	Description string
	Category    string
	Recipient   string
	Sender      string
}

// Ledger is the in-memory balance + history state for the active session.
// All access is serialized through the internal mutex, preserving the
// single-writer-at-a-time property of the original.
type Ledger struct {
	mu      sync.Mutex
	profile models.UserProfile
	history []models.Transaction
}

// New creates a ledger for profile with the given seed history. Seed
// transactions are assumed to already be in newest-first order.
func New(profile models.UserProfile, seed []models.Transaction) *Ledger {
	history := make([]models.Transaction, len(seed))
	copy(history, seed)
	return &Ledger{profile: profile, history: history}
}

// Record validates the entry, prepends a SUCCESS transaction to the history
// and adjusts the balance. Credits for TOP_UP and RECEIVE, debits otherwise.
// A debit exceeding the balance returns domain.ErrInsufficientFunds and
// leaves the ledger untouched. The append and the balance update happen
// together under the lock; no partial state is observable.
//
// There is deliberately no idempotence key: recording the same entry twice
// produces two history entries and a double balance effect.
func (l *Ledger) Record(e Entry) (models.Transaction, error) {
	if e.Amount <= 0 {
		return models.Transaction{}, fmt.Errorf("invalid amount: %d", e.Amount)
	}
	switch e.Type {
	case domain.TxTypePayment, domain.TxTypeTopUp, domain.TxTypeTransfer, domain.TxTypeReceive, domain.TxTypeWithdraw:
	default:
		return models.Transaction{}, fmt.Errorf("unknown transaction type: %q", e.Type)
	}
	category := e.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !domain.ValidCategory(category) {
		return models.Transaction{}, fmt.Errorf("unknown category: %q", category)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	credit := domain.CreditsBalance(e.Type)
	if !credit && l.profile.Balance < e.Amount {
		return models.Transaction{}, domain.ErrInsufficientFunds
	}

	tx := models.Transaction{
		ID:          models.NewTransactionID(),
		Type:        e.Type,
		Amount:      e.Amount,
		Currency:    domain.DefaultCurrency,
		Status:      domain.TxStatusSuccess,
		Timestamp:   time.Now().UTC(),
		Description: e.Description,
		Recipient:   e.Recipient,
		Sender:      e.Sender,
		Category:    category,
	}

	l.history = append([]models.Transaction{tx}, l.history...)
	if credit {
		l.profile.Balance += e.Amount
	} else {
		l.profile.Balance -= e.Amount
	}

	return tx, nil
}

// Profile returns a copy of the session profile.
func (l *Ledger) Profile() models.UserProfile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profile
}

// Transactions returns a copy of the history, newest first.
func (l *Ledger) Transactions() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Transaction, len(l.history))
	copy(out, l.history)
	return out
}

// Transaction looks up a history entry by id.
func (l *Ledger) Transaction(id string) (models.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range l.history {
		if tx.ID == id {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

// SetRole switches the active role. Roles are mutually exclusive and change
// only through this explicit action.
func (l *Ledger) SetRole(role string) error {
	if !domain.ValidRole(role) {
		return fmt.Errorf("unknown role: %q", role)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile.Role = role
	return nil
}

// SetBiometrics toggles the biometric opt-in flag.
func (l *Ledger) SetBiometrics(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile.IsBiometricsEnabled = enabled
}

// AdvanceKYC moves the verification status forward. Backward transitions are
// rejected.
func (l *Ledger) AdvanceKYC(next string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !domain.KYCAdvances(l.profile.KYCStatus, next) {
		return fmt.Errorf("invalid kyc transition: %s -> %s", l.profile.KYCStatus, next)
	}
	l.profile.KYCStatus = next
	return nil
}
