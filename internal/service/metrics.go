// Package service holds cross-session aggregation used by the admin
// surface.
package service

import (
	"github.com/shopspring/decimal"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/session"
)

// MetricsService aggregates operational figures across all live sessions.
type MetricsService struct {
	sessions *session.Manager
}

// NewMetricsService creates the admin metrics aggregator.
func NewMetricsService(sessions *session.Manager) *MetricsService {
	return &MetricsService{sessions: sessions}
}

// Snapshot is a point-in-time aggregate over live sessions. Volumes are
// decimal strings so downstream consumers never do float math on money.
type Snapshot struct {
	ActiveSessions  int               `json:"active_sessions"`
	TotalBalance    string            `json:"total_balance"`
	Currency        string            `json:"currency"`
	VolumeByType    map[string]string `json:"volume_by_type"`
	CountByType     map[string]int    `json:"count_by_type"`
	FlowsInProgress int               `json:"flows_in_progress"`
	FlowsSucceeded  int               `json:"flows_succeeded"`
	FlowsFailed     int               `json:"flows_failed"`
	FlowsCanceled   int               `json:"flows_canceled"`
	SuccessRatePct  string            `json:"success_rate_pct"`
}

// Collect walks every live session and totals balances, per-type transaction
// volume and flow outcomes. Seeded history counts toward volume like any
// other transaction.
func (s *MetricsService) Collect() Snapshot {
	sessions := s.sessions.All()

	totalBalance := decimal.Zero
	volume := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	var inProgress, succeeded, failed, canceled int

	for _, sess := range sessions {
		totalBalance = totalBalance.Add(domain.NewMoney(sess.Ledger.Profile().Balance).ToDecimal())

		for _, tx := range sess.Ledger.Transactions() {
			volume[tx.Type] = volume[tx.Type].Add(domain.NewMoney(tx.Amount).ToDecimal())
			counts[tx.Type]++
		}

		for _, inst := range sess.Flows() {
			switch inst.State().Status {
			case flows.StatusProcessing:
				inProgress++
			case flows.StatusSuccess:
				succeeded++
			case flows.StatusFailed:
				failed++
			case flows.StatusCanceled:
				canceled++
			}
		}
	}

	volumeOut := make(map[string]string, len(volume))
	for txType, amount := range volume {
		volumeOut[txType] = amount.StringFixed(0)
	}

	terminal := succeeded + failed
	return Snapshot{
		ActiveSessions:  len(sessions),
		TotalBalance:    totalBalance.StringFixed(0),
		Currency:        domain.DefaultCurrency,
		VolumeByType:    volumeOut,
		CountByType:     counts,
		FlowsInProgress: inProgress,
		FlowsSucceeded:  succeeded,
		FlowsFailed:     failed,
		FlowsCanceled:   canceled,
		SuccessRatePct:  domain.Percentage(int64(succeeded), int64(terminal)).StringFixed(2),
	}
}
