package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/flows"
)

// FlowHandler starts and drives money-movement flows for the authenticated
// session. Payments are asynchronous (poll, retry, cancel); transfers,
// withdrawals and collections settle within the request.
type FlowHandler struct{}

func NewFlowHandler() *FlowHandler {
	return &FlowHandler{}
}

// CreatePayment starts a payment flow and returns immediately with its id.
func (h *FlowHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	var req struct {
		Amount int64  `json:"amount" validate:"required,gt=0"`
		Method string `json:"method" validate:"omitempty,oneof=NFC QR"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}

	inst, err := sess.StartFlow(flows.KindPayment, flows.Params{Amount: req.Amount, Method: req.Method})
	if err != nil {
		h.startError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusAccepted, inst.State())
}

// GetPayment polls a payment flow's state.
func (h *FlowHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, inst.State())
}

// RetryPayment re-enters PROCESSING after a failed settlement.
func (h *FlowHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := inst.Retry(); err != nil {
		status, problemType, message, mapped := mapDomainError(err)
		if !mapped {
			status, problemType, message = http.StatusConflict, "flows/not-retryable", err.Error()
		}
		RespondError(w, r, status, problemType, message)
		return
	}
	RespondJSON(w, http.StatusAccepted, inst.State())
}

// CancelPayment abandons a pending payment. Its settlement never reaches the
// ledger.
func (h *FlowHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	inst.Cancel()
	RespondJSON(w, http.StatusOK, inst.State())
}

// Recipients returns the static transfer directory.
func (h *FlowHandler) Recipients(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{"recipients": flows.Recipients()})
}

// CreateTransfer runs a transfer to a directory recipient to completion.
func (h *FlowHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    int64  `json:"amount" validate:"required,gt=0"`
		Recipient string `json:"recipient" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.runSync(w, r, flows.KindTransfer, flows.Params{Amount: req.Amount, Recipient: req.Recipient})
}

// CreateWithdrawal runs a withdrawal to completion.
func (h *FlowHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.runSync(w, r, flows.KindWithdrawal, flows.Params{Amount: req.Amount})
}

// CreateCollection credits a merchant collection to completion. Routing
// enforces the MERCHANT role.
func (h *FlowHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.runSync(w, r, flows.KindCollection, flows.Params{Amount: req.Amount})
}

// runSync starts a flow and waits for its settlement within the request.
func (h *FlowHandler) runSync(w http.ResponseWriter, r *http.Request, kind flows.Kind, p flows.Params) {
	sess := middleware.SessionFromContext(r.Context())

	inst, err := sess.StartFlow(kind, p)
	if err != nil {
		h.startError(w, r, err)
		return
	}
	if err := inst.Wait(r.Context()); err != nil {
		inst.Cancel()
		RespondError(w, r, http.StatusRequestTimeout, "flows/abandoned", "request ended before settlement")
		return
	}

	st := inst.State()
	if st.Status == flows.StatusFailed {
		status, problemType, message := http.StatusBadGateway, "flows/settlement-failed", st.Error
		if mapped, pt, msg, ok := failureDetail(st.Error); ok {
			status, problemType, message = mapped, pt, msg
		}
		RespondError(w, r, status, problemType, message)
		return
	}
	RespondJSON(w, http.StatusCreated, st)
}

func (h *FlowHandler) startError(w http.ResponseWriter, r *http.Request, err error) {
	status, problemType, message, mapped := mapDomainError(err)
	if !mapped {
		status, problemType, message = http.StatusBadRequest, "request/invalid", err.Error()
	}
	RespondError(w, r, status, problemType, message)
}

func (h *FlowHandler) lookup(w http.ResponseWriter, r *http.Request) (*flows.Instance, bool) {
	sess := middleware.SessionFromContext(r.Context())
	inst, ok := sess.Flow(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, r, http.StatusNotFound, "flows/not-found", "flow not found")
		return nil, false
	}
	return inst, true
}
