package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tappay/wallet-api/internal/api/problem"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/flows"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// DecodeJSON decodes the request body into dst and runs struct validation.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) && len(verr) > 0 {
			return errors.New("invalid field: " + strings.ToLower(verr[0].Field()))
		}
		return errors.New("invalid request")
	}
	return nil
}

// mapDomainError translates the domain error taxonomy to problem responses.
// Everything here is non-fatal: the caller stays where it is and may retry.
func mapDomainError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, "auth/account-exists", err.Error(), true
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "auth/account-not-found", err.Error(), true
	case errors.Is(err, domain.ErrPINMismatch):
		return http.StatusUnauthorized, "auth/pin-mismatch", err.Error(), true
	case errors.Is(err, domain.ErrPINConfirmMismatch):
		return http.StatusUnprocessableEntity, "auth/pin-confirm-mismatch", err.Error(), true
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "ledger/insufficient-funds", err.Error(), true
	case errors.Is(err, domain.ErrGatewayFailure):
		return http.StatusBadGateway, "gateway/failure", err.Error(), true
	case errors.Is(err, flows.ErrUnknownRecipient):
		return http.StatusNotFound, "flows/unknown-recipient", err.Error(), true
	case errors.Is(err, flows.ErrNotRetryable):
		return http.StatusConflict, "flows/not-retryable", err.Error(), true
	}
	return 0, "", "", false
}

// failureDetail maps the stored failure message of a settled flow back to a
// specific problem document. Flow state carries only the message, not the
// error value.
func failureDetail(msg string) (status int, problemType, message string, ok bool) {
	switch msg {
	case domain.ErrInsufficientFunds.Error():
		return http.StatusUnprocessableEntity, "ledger/insufficient-funds", msg, true
	case domain.ErrGatewayFailure.Error():
		return http.StatusBadGateway, "gateway/failure", msg, true
	}
	return 0, "", "", false
}
