package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/gateway"
	"github.com/tappay/wallet-api/internal/ledger"
	"github.com/tappay/wallet-api/internal/observability"
	"go.uber.org/zap"
)

// WalletHandler serves the session's profile, history and gateway top-ups.
type WalletHandler struct {
	gateway gateway.Gateway
}

func NewWalletHandler(gw gateway.Gateway) *WalletHandler {
	return &WalletHandler{gateway: gw}
}

// Profile returns the session profile including the current balance.
func (h *WalletHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	profile := sess.Ledger.Profile()
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"balance": domain.NewMoney(profile.Balance).String(),
	})
}

// Transactions returns the history, newest first. An optional limit query
// parameter truncates the list.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	txs := sess.Ledger.Transactions()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-limit", "limit must be a non-negative integer")
			return
		}
		if limit < len(txs) {
			txs = txs[:limit]
		}
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// Transaction looks up one history entry.
func (h *WalletHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	tx, ok := sess.Ledger.Transaction(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, r, http.StatusNotFound, "ledger/transaction-not-found", "transaction not found")
		return
	}
	RespondJSON(w, http.StatusOK, tx)
}

// Alerts returns the session's security notices.
func (h *WalletHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	RespondJSON(w, http.StatusOK, map[string]interface{}{"alerts": sess.Alerts()})
}

// TopUp funds the wallet through the gateway: Initialize, Verify, then a
// single ledger credit.
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}

	email := sess.Ledger.Profile().Email
	reference, err := h.gateway.InitializeTransaction(r.Context(), email, req.Amount)
	if err != nil {
		observability.IncrementGatewayCall("initialize", "error")
		RespondError(w, r, http.StatusBadGateway, "gateway/initialize-failed", "gateway initialization failed")
		return
	}
	observability.IncrementGatewayCall("initialize", "ok")

	verified, err := h.gateway.VerifyTransaction(r.Context(), reference)
	if err != nil || !verified {
		observability.IncrementGatewayCall("verify", "error")
		RespondError(w, r, http.StatusBadGateway, "gateway/verify-failed", "gateway verification failed")
		return
	}
	observability.IncrementGatewayCall("verify", "ok")

	tx, err := sess.Ledger.Record(ledger.Entry{
		Type:        domain.TxTypeTopUp,
		Amount:      req.Amount,
		Description: "Paystack Funding",
	})
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "ledger/record-failed", "failed to record top-up")
		return
	}
	observability.IncrementLedgerRecord(domain.TxTypeTopUp)

	zap.L().Info("wallet topped up",
		zap.String("session_id", sess.ID),
		zap.String("reference", reference),
		zap.Int64("amount", req.Amount),
	)
	RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"reference":   reference,
		"transaction": tx,
	})
}
