package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/models"
)

func newTestLedger(balance int64) *Ledger {
	return New(models.UserProfile{
		ID:        "u1",
		Name:      "TAPPAY User",
		Balance:   balance,
		Role:      domain.RoleConsumer,
		KYCStatus: domain.KYCUnverified,
	}, nil)
}

func TestRecordOrderPreserving(t *testing.T) {
	l := newTestLedger(1000)

	_, err := l.Record(Entry{Type: domain.TxTypeTopUp, Amount: 100, Description: "Paystack Top-up"})
	require.NoError(t, err)
	_, err = l.Record(Entry{Type: domain.TxTypePayment, Amount: 30, Description: "NFC Payment"})
	require.NoError(t, err)

	assert.Equal(t, int64(1000+100-30), l.Profile().Balance)

	history := l.Transactions()
	require.Len(t, history, 2)
	assert.Equal(t, domain.TxTypePayment, history[0].Type)
	assert.Equal(t, domain.TxTypeTopUp, history[1].Type)
}

func TestRecordNoDeduplication(t *testing.T) {
	l := newTestLedger(0)

	e := Entry{Type: domain.TxTypeTopUp, Amount: 100, Description: "Paystack Top-up"}
	tx1, err := l.Record(e)
	require.NoError(t, err)
	tx2, err := l.Record(e)
	require.NoError(t, err)

	assert.NotEqual(t, tx1.ID, tx2.ID)
	assert.Equal(t, int64(200), l.Profile().Balance)
	assert.Len(t, l.Transactions(), 2)
}

func TestRecordInsufficientFunds(t *testing.T) {
	l := newTestLedger(50)

	_, err := l.Record(Entry{Type: domain.TxTypePayment, Amount: 80, Description: "NFC Payment"})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, int64(50), l.Profile().Balance)
	assert.Empty(t, l.Transactions())
}

func TestRecordValidation(t *testing.T) {
	l := newTestLedger(100)

	_, err := l.Record(Entry{Type: domain.TxTypePayment, Amount: 0})
	assert.Error(t, err)

	_, err = l.Record(Entry{Type: "REFUND", Amount: 10})
	assert.Error(t, err)

	_, err = l.Record(Entry{Type: domain.TxTypePayment, Amount: 10, Category: "GAMBLING"})
	assert.Error(t, err)

	assert.Empty(t, l.Transactions())
}

func TestRecordDefaultsCategory(t *testing.T) {
	l := newTestLedger(100)

	tx, err := l.Record(Entry{Type: domain.TxTypePayment, Amount: 10, Description: "NFC Payment"})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, tx.Category)
	assert.Equal(t, domain.TxStatusSuccess, tx.Status)
	assert.Equal(t, domain.DefaultCurrency, tx.Currency)
}

func TestSeedHistoryPreserved(t *testing.T) {
	seed := []models.Transaction{
		{ID: "tx_82193", Type: domain.TxTypePayment, Amount: 1500, Description: "Starbucks Coffee"},
		{ID: "tx_91283", Type: domain.TxTypeTopUp, Amount: 50000, Description: "Paystack Funding"},
	}
	l := New(models.UserProfile{Balance: 125400, Role: domain.RoleConsumer, KYCStatus: domain.KYCUnverified}, seed)

	_, err := l.Record(Entry{Type: domain.TxTypeReceive, Amount: 2400, Description: "Soft POS Collection"})
	require.NoError(t, err)

	history := l.Transactions()
	require.Len(t, history, 3)
	assert.Equal(t, domain.TxTypeReceive, history[0].Type)
	assert.Equal(t, "tx_82193", history[1].ID)
	assert.Equal(t, "tx_91283", history[2].ID)
	assert.Equal(t, int64(125400+2400), l.Profile().Balance)
}

func TestAdvanceKYCMonotonic(t *testing.T) {
	l := newTestLedger(0)

	require.NoError(t, l.AdvanceKYC(domain.KYCPending))
	require.NoError(t, l.AdvanceKYC(domain.KYCVerifiedL2))

	err := l.AdvanceKYC(domain.KYCPending)
	assert.Error(t, err)
	assert.Equal(t, domain.KYCVerifiedL2, l.Profile().KYCStatus)
}

func TestSetRole(t *testing.T) {
	l := newTestLedger(0)

	require.NoError(t, l.SetRole(domain.RoleMerchant))
	assert.Equal(t, domain.RoleMerchant, l.Profile().Role)

	assert.Error(t, l.SetRole("SUPERUSER"))
}
