package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/app/service/reconciler"
	"github.com/subdash/subdash/internal/models"
	stripeclient "github.com/subdash/subdash/internal/platform/stripe"
	"github.com/subdash/subdash/pkg/config"
)

type nopBroadcaster struct {
	events []string
}

func (n *nopBroadcaster) Broadcast(event string, _ any) {
	n.events = append(n.events, event)
}

type nopIssueStore struct{}

func (nopIssueStore) Create(_ context.Context, issue *models.PaymentIssue) (*models.PaymentIssue, error) {
	return issue, nil
}

type nopResolver struct{}

func (nopResolver) ResolveStripeCustomer(context.Context, string) (*uint, *uint, error) {
	return nil, nil, nil
}

type memRecorder struct {
	seen map[string]bool
}

func (m *memRecorder) Claim(_ context.Context, eventID, _ string, _ []byte) (bool, error) {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *memRecorder) MarkFailed(_ context.Context, eventID string) {
	delete(m.seen, eventID)
}

func newWebhookRouter(webhookSecret string) (*gin.Engine, *nopBroadcaster) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()

	sc := stripeclient.NewClient(&config.Config{
		Stripe: config.StripeConfig{WebhookSecret: webhookSecret},
	})
	b := &nopBroadcaster{}
	rec := reconciler.New(nopResolver{}, nopIssueStore{}, &memRecorder{}, b, log)

	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api"), NewWebhookHandler(sc, rec, log))
	return r, b
}

// signBody produces a Stripe-Signature header value for the given payload.
func signBody(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d", ts.Unix())))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(r *gin.Engine, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const paymentSucceededBody = `{
	"id": "evt_test_1",
	"api_version": "2025-08-27.basil",
	"type": "payment_intent.succeeded",
	"data": {"object": {"amount": 2500, "currency": "usd", "customer": {"id": "cus_1"}}}
}`

func TestWebhookSignedAccepted(t *testing.T) {
	const secret = "whsec_test"
	r, b := newWebhookRouter(secret)

	sig := signBody(secret, []byte(paymentSucceededBody), time.Now())
	w := postWebhook(r, paymentSucceededBody, sig)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, []string{reconciler.BroadcastPaymentSuccess}, b.events)
}

func TestWebhookMissingSignature(t *testing.T) {
	r, b := newWebhookRouter("whsec_test")

	w := postWebhook(r, paymentSucceededBody, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, b.events, "unverified events must not reach the reconciler")
}

func TestWebhookBadSignature(t *testing.T) {
	r, b := newWebhookRouter("whsec_test")

	sig := signBody("whsec_wrong", []byte(paymentSucceededBody), time.Now())
	w := postWebhook(r, paymentSucceededBody, sig)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, b.events)
}

func TestWebhookStaleTimestampRejected(t *testing.T) {
	const secret = "whsec_test"
	r, _ := newWebhookRouter(secret)

	sig := signBody(secret, []byte(paymentSucceededBody), time.Now().Add(-time.Hour))
	w := postWebhook(r, paymentSucceededBody, sig)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookUnsignedDevMode(t *testing.T) {
	r, b := newWebhookRouter("")

	w := postWebhook(r, `{"type": "payment_intent.succeeded", "data": {"object": {"amount": 100}}}`, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, []string{reconciler.BroadcastPaymentSuccess}, b.events)
}

func TestWebhookUnsignedMalformedJSON(t *testing.T) {
	r, _ := newWebhookRouter("")

	w := postWebhook(r, `{not json`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookInvalidPayloadIsBadRequest(t *testing.T) {
	r, _ := newWebhookRouter("")

	w := postWebhook(r, `{"type": "payment_intent.succeeded", "data": {"object": {"amount": "oops"}}}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookDuplicateDeliveryAcknowledged(t *testing.T) {
	const secret = "whsec_test"
	r, b := newWebhookRouter(secret)

	sig := signBody(secret, []byte(paymentSucceededBody), time.Now())
	first := postWebhook(r, paymentSucceededBody, sig)
	second := postWebhook(r, paymentSucceededBody, sig)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code, "redelivery is acknowledged")
	assert.Len(t, b.events, 1, "redelivery must not re-broadcast")
}

func TestWebhookUnknownTypeAcknowledged(t *testing.T) {
	r, b := newWebhookRouter("")

	w := postWebhook(r, `{"type": "charge.refunded", "data": {"object": {}}}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, b.events)
}
