package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/session"
)

func TestCollectEmpty(t *testing.T) {
	svc := NewMetricsService(session.NewManager())
	snap := svc.Collect()

	assert.Zero(t, snap.ActiveSessions)
	assert.Equal(t, "0", snap.TotalBalance)
	assert.Equal(t, "0.00", snap.SuccessRatePct)
}

func TestCollectAggregatesSessions(t *testing.T) {
	mgr := session.NewManager()
	svc := NewMetricsService(mgr)

	a := mgr.Create("a@x.com")
	mgr.Create("b@x.com")

	inst, err := a.StartFlow(flows.KindWithdrawal, flows.Params{Amount: 400})
	require.NoError(t, err)
	require.NoError(t, inst.Wait(context.Background()))

	snap := svc.Collect()
	assert.Equal(t, 2, snap.ActiveSessions)

	// Both seed balances, minus the withdrawal.
	assert.Equal(t, "250400", snap.TotalBalance)
	assert.Equal(t, domain.DefaultCurrency, snap.Currency)

	// Two seeded payments plus nothing else of that type.
	assert.Equal(t, 2, snap.CountByType[domain.TxTypePayment])
	assert.Equal(t, "3000", snap.VolumeByType[domain.TxTypePayment])
	assert.Equal(t, 1, snap.CountByType[domain.TxTypeWithdraw])
	assert.Equal(t, "400", snap.VolumeByType[domain.TxTypeWithdraw])

	assert.Equal(t, 1, snap.FlowsSucceeded)
	assert.Equal(t, "100.00", snap.SuccessRatePct)
}

func TestCollectFlowOutcomes(t *testing.T) {
	mgr := session.NewManager(session.WithFlowConfig(flows.Config{
		PaymentOutcome: flows.OutcomeFunc(func() bool { return false }),
	}))
	svc := NewMetricsService(mgr)
	s := mgr.Create("a@x.com")

	ok, err := s.StartFlow(flows.KindCollection, flows.Params{Amount: 2400})
	require.NoError(t, err)
	require.NoError(t, ok.Wait(context.Background()))

	bad, err := s.StartFlow(flows.KindPayment, flows.Params{Amount: 100})
	require.NoError(t, err)
	require.NoError(t, bad.Wait(context.Background()))

	snap := svc.Collect()
	assert.Equal(t, 1, snap.FlowsSucceeded)
	assert.Equal(t, 1, snap.FlowsFailed)
	assert.Equal(t, "50.00", snap.SuccessRatePct)
}
