package handler

import (
	"net/http"

	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/session"
	"go.uber.org/zap"
)

// ProfileHandler mutates the session profile: role switches, biometric
// opt-in, KYC submission and logout.
type ProfileHandler struct {
	sessions *session.Manager
}

func NewProfileHandler(sessions *session.Manager) *ProfileHandler {
	return &ProfileHandler{sessions: sessions}
}

// SetRole switches the active role. Roles are mutually exclusive; the switch
// takes effect on the next request through the role gate.
func (h *ProfileHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	var req struct {
		Role string `json:"role" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	if err := sess.Ledger.SetRole(req.Role); err != nil {
		RespondError(w, r, http.StatusBadRequest, "profile/unknown-role", err.Error())
		return
	}
	zap.L().Info("role switched", zap.String("session_id", sess.ID), zap.String("role", req.Role))
	RespondJSON(w, http.StatusOK, sess.Ledger.Profile())
}

// SetBiometrics toggles the biometric opt-in flag.
func (h *ProfileHandler) SetBiometrics(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	sess.Ledger.SetBiometrics(req.Enabled)
	RespondJSON(w, http.StatusOK, sess.Ledger.Profile())
}

// SubmitKYC accepts the verification form and moves the profile to PENDING.
// Review never completes within a session; the status stays PENDING until
// logout resets everything.
func (h *ProfileHandler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	var req struct {
		FullName string `json:"full_name" validate:"required"`
		IDNumber string `json:"id_number" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	if err := sess.Ledger.AdvanceKYC(domain.KYCPending); err != nil {
		RespondError(w, r, http.StatusConflict, "profile/kyc-already-submitted", "verification already submitted")
		return
	}
	zap.L().Info("kyc submitted", zap.String("session_id", sess.ID))
	RespondJSON(w, http.StatusAccepted, sess.Ledger.Profile())
}

// Logout destroys the session. Credentials survive; everything else resets.
func (h *ProfileHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	h.sessions.End(r.Context(), sess.ID)
	RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
