package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tappay/wallet-api/internal/api/middleware"
	"github.com/tappay/wallet-api/internal/config"
	"github.com/tappay/wallet-api/internal/credential"
	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/gateway"
	"github.com/tappay/wallet-api/internal/session"
	"go.uber.org/zap"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newTestRouter(t *testing.T, outcome flows.OutcomeProvider) http.Handler {
	t.Helper()
	middleware.SetJWTSecret(testJWTSecret)
	middleware.SetJWTValidation("tappay-wallet", "tappay-api")

	cfg := &config.Config{
		SessionTokenTTL:     time.Hour,
		PublicRateLimitRPS:  1000,
		SessionRateLimitRPS: 1000,
	}
	sessions := session.NewManager(session.WithFlowConfig(flows.Config{
		PaymentOutcome: outcome,
	}))
	gw := gateway.NewMockGateway()
	gw.Delay = 0

	router := NewRouter(cfg, zap.NewNop(), nil, nil, credential.NewMemory(), sessions, gw)
	return router.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// signUp drives a registration through the public auth-flow endpoints and
// returns the session token.
func signUp(t *testing.T, h http.Handler, identifier string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/flows", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	flowID := decodeBody(t, rec)["id"].(string)
	base := "/v1/auth/flows/" + flowID

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/mode", "", map[string]bool{"register": true}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/identifier", "", map[string]string{"identifier": identifier}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/otp", "", map[string]string{"code": "0000"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/pin", "", map[string]string{"pin": "1234"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/pin", "", map[string]string{"pin": "1234"}).Code)

	rec = doJSON(t, h, http.MethodPost, base+"/biometrics", "", map[string]bool{"enable": true})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func pollPayment(t *testing.T, h http.Handler, token, id string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, h, http.MethodGet, "/v1/payments/"+id, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		st := decodeBody(t, rec)
		if st["status"] != string(flows.StatusProcessing) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("payment did not settle in time")
	return nil
}

func TestSignupIssuesWorkingToken(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "new@x.com")

	rec := doJSON(t, h, http.MethodGet, "/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "TAPPAY User", profile["name"])
	assert.Equal(t, float64(125_400), profile["balance"])
	assert.Equal(t, "NGN 125400", body["balance"])
}

func TestWalletRequiresToken(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodGet, "/v1/wallet", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodGet, "/v1/wallet", "not-a-jwt", nil).Code)
}

func TestLoginAfterSignup(t *testing.T) {
	h := newTestRouter(t, nil)
	signUp(t, h, "login@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/flows", "", nil)
	flowID := decodeBody(t, rec)["id"].(string)
	base := "/v1/auth/flows/" + flowID

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/mode", "", map[string]bool{"register": false}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, base+"/identifier", "", map[string]string{"identifier": "login@x.com"}).Code)

	// Wrong PIN keeps the flow alive.
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodPost, base+"/pin", "", map[string]string{"pin": "9999"}).Code)

	rec = doJSON(t, h, http.MethodPost, base+"/pin", "", map[string]string{"pin": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/v1/wallet", token, nil).Code)
}

func TestPaymentRetryLifecycle(t *testing.T) {
	attempts := 0
	h := newTestRouter(t, flows.OutcomeFunc(func() bool {
		attempts++
		return attempts > 1
	}))
	token := signUp(t, h, "pay@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/payments", token, map[string]interface{}{"amount": 1500, "method": "NFC"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	st := pollPayment(t, h, token, id)
	require.Equal(t, string(flows.StatusFailed), st["status"])

	require.Equal(t, http.StatusAccepted, doJSON(t, h, http.MethodPost, fmt.Sprintf("/v1/payments/%s/retry", id), token, nil).Code)
	st = pollPayment(t, h, token, id)
	require.Equal(t, string(flows.StatusSuccess), st["status"])

	// Exactly one debit across both attempts.
	rec = doJSON(t, h, http.MethodGet, "/v1/wallet", token, nil)
	profile := decodeBody(t, rec)["profile"].(map[string]interface{})
	assert.Equal(t, float64(123_900), profile["balance"])
}

func TestPaymentCancel(t *testing.T) {
	h := newTestRouter(t, flows.OutcomeFunc(func() bool { return true }))
	token := signUp(t, h, "cancel@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/payments", token, map[string]interface{}{"amount": 1500})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodDelete, "/v1/payments/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)["status"]
	assert.Contains(t, []interface{}{string(flows.StatusCanceled), string(flows.StatusSuccess)}, status)
}

func TestTransferFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "tx@x.com")

	rec := doJSON(t, h, http.MethodGet, "/v1/transfers/recipients", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/transfers", token, map[string]interface{}{"amount": 2000, "recipient": "Alice Smith"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/transfers", token, map[string]interface{}{"amount": 2000, "recipient": "Mallory"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/withdrawals", token, map[string]interface{}{"amount": 99_999_999})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCollectionRequiresMerchantRole(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "shop@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/collections", token, map[string]interface{}{"amount": 2400})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPut, "/v1/profile/role", token, map[string]string{"role": "MERCHANT"}).Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/collections", token, map[string]interface{}{"amount": 2400})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminMetricsRequiresAdminRole(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "ops@x.com")

	assert.Equal(t, http.StatusForbidden, doJSON(t, h, http.MethodGet, "/v1/admin/metrics", token, nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPut, "/v1/profile/role", token, map[string]string{"role": "ADMIN"}).Code)

	rec := doJSON(t, h, http.MethodGet, "/v1/admin/metrics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["active_sessions"])
}

func TestTopUpCreditsBalance(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "fund@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/wallet/topup", token, map[string]interface{}{"amount": 50_000})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["reference"])

	rec = doJSON(t, h, http.MethodGet, "/v1/wallet", token, nil)
	profile := decodeBody(t, rec)["profile"].(map[string]interface{})
	assert.Equal(t, float64(175_400), profile["balance"])
}

func TestLogoutEndsSession(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "bye@x.com")

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/v1/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodGet, "/v1/wallet", token, nil).Code)
}

func TestTransactionHistory(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "hist@x.com")

	rec := doJSON(t, h, http.MethodGet, "/v1/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decodeBody(t, rec)["transactions"].([]interface{})
	require.Len(t, txs, 2)

	rec = doJSON(t, h, http.MethodGet, "/v1/wallet/transactions?limit=1", token, nil)
	assert.Len(t, decodeBody(t, rec)["transactions"].([]interface{}), 1)

	rec = doJSON(t, h, http.MethodGet, "/v1/wallet/transactions/tx_82193", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Starbucks Coffee", decodeBody(t, rec)["description"])

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/v1/wallet/transactions/tx_none", token, nil).Code)
}

func TestKYCSubmission(t *testing.T) {
	h := newTestRouter(t, nil)
	token := signUp(t, h, "kyc@x.com")

	rec := doJSON(t, h, http.MethodPost, "/v1/profile/kyc", token, map[string]string{"full_name": "Ada O", "id_number": "A1234567"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "PENDING", decodeBody(t, rec)["kyc_status"])

	// Re-submitting is rejected; review never completes in-session.
	rec = doJSON(t, h, http.MethodPost, "/v1/profile/kyc", token, map[string]string{"full_name": "Ada O", "id_number": "A1234567"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthAndSpecEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/openapi.yaml", "", nil).Code)
}
