package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/authflow"
	"github.com/tappay/wallet-api/internal/credential"
	"github.com/tappay/wallet-api/internal/models"
	"github.com/tappay/wallet-api/internal/session"
)

// AuthFlowHandler exposes the authentication step-machine over HTTP. Flow
// instances live in memory, keyed by id, until they authenticate (becoming a
// session) or are abandoned.
type AuthFlowHandler struct {
	mu    sync.Mutex
	flows map[string]*authflow.Flow

	creds    credential.Store
	sessions *session.Manager
	opts     []authflow.Option
	tokenTTL time.Duration
}

// NewAuthFlowHandler creates the handler. opts are applied to every flow
// instance it creates.
func NewAuthFlowHandler(creds credential.Store, sessions *session.Manager, tokenTTL time.Duration, opts ...authflow.Option) *AuthFlowHandler {
	return &AuthFlowHandler{
		flows:    make(map[string]*authflow.Flow),
		creds:    creds,
		sessions: sessions,
		opts:     opts,
		tokenTTL: tokenTTL,
	}
}

type flowResponse struct {
	ID        string             `json:"id"`
	State     authflow.State     `json:"state"`
	Token     string             `json:"token,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Profile   *models.UserProfile `json:"profile,omitempty"`
}

// Create starts a flow at the WELCOME step.
func (h *AuthFlowHandler) Create(w http.ResponseWriter, r *http.Request) {
	f := authflow.New(h.creds, h.opts...)
	id := uuid.NewString()

	h.mu.Lock()
	h.flows[id] = f
	h.mu.Unlock()

	RespondJSON(w, http.StatusCreated, flowResponse{ID: id, State: f.State()})
}

// Get returns the current flow state.
func (h *AuthFlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, flowResponse{ID: id, State: f.State()})
}

// Mode leaves WELCOME (or the reset-success screen) for identifier entry.
func (h *AuthFlowHandler) Mode(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Register bool `json:"register"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.respond(w, r, id, f, f.Select(req.Register))
}

// Identifier submits the email or phone for the identifier check.
func (h *AuthFlowHandler) Identifier(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Identifier string `json:"identifier" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.respond(w, r, id, f, f.SubmitIdentifier(r.Context(), req.Identifier))
}

// Forgot branches from sign-in into the PIN reset path.
func (h *AuthFlowHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, f, f.ForgotPIN())
}

// PIN submits the PIN for whichever PIN step is active. A successful sign-in
// check authenticates the flow.
func (h *AuthFlowHandler) PIN(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		PIN string `json:"pin" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.respond(w, r, id, f, f.SubmitPIN(r.Context(), req.PIN))
}

// OTP submits the one-time code.
func (h *AuthFlowHandler) OTP(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.respond(w, r, id, f, f.SubmitOTP(req.Code))
}

// Resend requests a fresh one-time code.
func (h *AuthFlowHandler) Resend(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, f, f.Resend())
}

// Back navigates to the predecessor step.
func (h *AuthFlowHandler) Back(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, f, f.Back())
}

// Biometrics records the opt-in choice, completing the signup path.
func (h *AuthFlowHandler) Biometrics(w http.ResponseWriter, r *http.Request) {
	f, id, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	h.respond(w, r, id, f, f.Biometrics(req.Enable))
}

func (h *AuthFlowHandler) lookup(w http.ResponseWriter, r *http.Request) (*authflow.Flow, string, bool) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	f, ok := h.flows[id]
	h.mu.Unlock()
	if !ok {
		RespondError(w, r, http.StatusNotFound, "auth/flow-not-found", "auth flow not found")
		return nil, "", false
	}
	return f, id, true
}

// respond translates the action result. Guard failures return their problem
// document alongside the unchanged step; on authentication the flow is
// promoted to a session and the token returned.
func (h *AuthFlowHandler) respond(w http.ResponseWriter, r *http.Request, id string, f *authflow.Flow, err error) {
	if err != nil {
		status, problemType, message, mapped := mapDomainError(err)
		if !mapped {
			switch {
			case errors.Is(err, authflow.ErrBusy):
				status, problemType, message = http.StatusConflict, "auth/check-in-progress", err.Error()
			case errors.Is(err, authflow.ErrInvalidAction):
				status, problemType, message = http.StatusConflict, "auth/invalid-action", err.Error()
			case errors.Is(err, authflow.ErrResendUnavailable):
				status, problemType, message = http.StatusTooManyRequests, "auth/resend-unavailable", err.Error()
			default:
				status, problemType, message = http.StatusBadRequest, "request/invalid", err.Error()
			}
		}
		RespondError(w, r, status, problemType, message)
		return
	}

	if !f.Authenticated() {
		RespondJSON(w, http.StatusOK, flowResponse{ID: id, State: f.State()})
		return
	}

	sess := h.sessions.Create(f.Identifier())
	if f.State().Registering {
		sess.Ledger.SetBiometrics(f.BiometricsEnabled())
	}

	token, signErr := middleware.IssueSessionToken(sess.ID, h.tokenTTL)
	if signErr != nil {
		RespondError(w, r, http.StatusInternalServerError, "auth/token-signing", "failed to sign token")
		return
	}

	h.mu.Lock()
	delete(h.flows, id)
	h.mu.Unlock()

	profile := sess.Ledger.Profile()
	RespondJSON(w, http.StatusOK, flowResponse{
		ID:        id,
		State:     f.State(),
		Token:     token,
		SessionID: sess.ID,
		Profile:   &profile,
	})
}
