package reconciler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/types"
)

type broadcastCall struct {
	event string
	data  any
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(event string, data any) {
	f.calls = append(f.calls, broadcastCall{event: event, data: data})
}

type fakeIssueStore struct {
	created []*models.PaymentIssue
	err     error
}

func (f *fakeIssueStore) Create(_ context.Context, issue *models.PaymentIssue) (*models.PaymentIssue, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, issue)
	return issue, nil
}

type fakeResolver struct {
	userID *uint
	subID  *uint
	err    error
}

func (f *fakeResolver) ResolveStripeCustomer(context.Context, string) (*uint, *uint, error) {
	return f.userID, f.subID, f.err
}

type fakeRecorder struct {
	seen   map[string]bool
	failed []string
}

func (f *fakeRecorder) Claim(_ context.Context, eventID, _ string, _ []byte) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeRecorder) MarkFailed(_ context.Context, eventID string) {
	f.failed = append(f.failed, eventID)
	delete(f.seen, eventID)
}

type fixture struct {
	svc      *Service
	b        *fakeBroadcaster
	issues   *fakeIssueStore
	resolver *fakeResolver
	recorder *fakeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		b:        &fakeBroadcaster{},
		issues:   &fakeIssueStore{},
		resolver: &fakeResolver{},
		recorder: &fakeRecorder{},
	}
	f.svc = New(f.resolver, f.issues, f.recorder, f.b, zap.NewNop().Sugar())
	return f
}

func event(id, typ string, payload string) stripe.Event {
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(typ),
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func TestHandleBroadcastMapping(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   string
		wantTag   string
	}{
		{
			name:      "payment succeeded",
			eventType: "payment_intent.succeeded",
			payload:   `{"amount":2500,"currency":"usd","customer":{"id":"cus_1"}}`,
			wantTag:   BroadcastPaymentSuccess,
		},
		{
			name:      "payment failed",
			eventType: "payment_intent.payment_failed",
			payload:   `{"amount":2500,"currency":"usd"}`,
			wantTag:   BroadcastPaymentFailed,
		},
		{
			name:      "invoice paid",
			eventType: "invoice.payment_succeeded",
			payload:   `{"amount_paid":9900,"customer":{"id":"cus_1"}}`,
			wantTag:   BroadcastInvoicePaid,
		},
		{
			name:      "subscription created",
			eventType: "customer.subscription.created",
			payload:   `{"id":"sub_1","status":"active","customer":{"id":"cus_1"}}`,
			wantTag:   BroadcastSubscriptionCreated,
		},
		{
			name:      "subscription updated",
			eventType: "customer.subscription.updated",
			payload:   `{"id":"sub_1","status":"past_due","customer":{"id":"cus_1"}}`,
			wantTag:   BroadcastSubscriptionUpdated,
		},
		{
			name:      "subscription cancelled",
			eventType: "customer.subscription.deleted",
			payload:   `{"id":"sub_1","customer":{"id":"cus_1"}}`,
			wantTag:   BroadcastSubscriptionCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			err := f.svc.Handle(context.Background(), event("evt_"+tt.name, tt.eventType, tt.payload))
			require.NoError(t, err)
			require.Len(t, f.b.calls, 1, "exactly one broadcast per event")
			assert.Equal(t, tt.wantTag, f.b.calls[0].event)
		})
	}
}

func TestHandlePaymentFailedCreatesIssue(t *testing.T) {
	f := newFixture()
	userID, subID := uint(7), uint(42)
	f.resolver.userID = &userID
	f.resolver.subID = &subID

	payload := `{"amount":2500,"currency":"usd","customer":{"id":"cus_1"},"last_payment_error":{"message":"Your card was declined."}}`
	err := f.svc.Handle(context.Background(), event("evt_1", "payment_intent.payment_failed", payload))
	require.NoError(t, err)

	require.Len(t, f.issues.created, 1)
	issue := f.issues.created[0]
	assert.Equal(t, types.PaymentIssueStatusPending, issue.Status)
	assert.Equal(t, 25.0, issue.Amount)
	assert.Equal(t, "Your card was declined.", issue.Reason)
	require.NotNil(t, issue.UserID)
	assert.Equal(t, userID, *issue.UserID)
	require.NotNil(t, issue.SubscriptionID)
	assert.Equal(t, subID, *issue.SubscriptionID)
	require.NotNil(t, issue.RetryDate)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *issue.RetryDate, time.Minute)

	require.Len(t, f.b.calls, 1)
	data, ok := f.b.calls[0].data.(PaymentFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "cus_1", data.CustomerID)
	assert.Equal(t, "Your card was declined.", data.Reason)
}

func TestHandlePaymentFailedWithoutCustomer(t *testing.T) {
	f := newFixture()
	payload := `{"amount":2500,"currency":"usd"}`
	err := f.svc.Handle(context.Background(), event("evt_1", "payment_intent.payment_failed", payload))
	require.NoError(t, err)

	assert.Empty(t, f.issues.created, "no issue without a customer reference")
	require.Len(t, f.b.calls, 1, "failure is still broadcast")
}

func TestHandlePaymentFailedUnmappedCustomer(t *testing.T) {
	f := newFixture()
	// resolver returns nil ids: no local mapping for this processor customer
	payload := `{"amount":1500,"customer":{"id":"cus_unknown"}}`
	err := f.svc.Handle(context.Background(), event("evt_1", "payment_intent.payment_failed", payload))
	require.NoError(t, err)

	require.Len(t, f.issues.created, 1)
	assert.Nil(t, f.issues.created[0].UserID)
	assert.Nil(t, f.issues.created[0].SubscriptionID)
	assert.Equal(t, "Payment failed", f.issues.created[0].Reason)
}

func TestHandleDuplicateDelivery(t *testing.T) {
	f := newFixture()
	payload := `{"amount":2500,"customer":{"id":"cus_1"}}`
	ev := event("evt_dup", "payment_intent.payment_failed", payload)

	require.NoError(t, f.svc.Handle(context.Background(), ev))
	require.NoError(t, f.svc.Handle(context.Background(), ev))

	assert.Len(t, f.issues.created, 1, "redelivery must not create a second issue")
	assert.Len(t, f.b.calls, 1, "redelivery must not re-broadcast")
}

func TestHandleUnknownType(t *testing.T) {
	f := newFixture()
	err := f.svc.Handle(context.Background(), event("evt_1", "charge.refunded", `{}`))
	require.NoError(t, err)
	assert.Empty(t, f.b.calls)
	assert.Empty(t, f.issues.created)
}

func TestHandleMalformedPayload(t *testing.T) {
	f := newFixture()
	err := f.svc.Handle(context.Background(), event("evt_bad", "payment_intent.succeeded", `{"amount":"not a number"`))
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, f.b.calls)
	assert.Equal(t, []string{"evt_bad"}, f.recorder.failed, "failed claim must be released for retry")
}

func TestHandleStorageFailure(t *testing.T) {
	f := newFixture()
	f.issues.err = assert.AnError
	payload := `{"amount":2500,"customer":{"id":"cus_1"}}`
	err := f.svc.Handle(context.Background(), event("evt_1", "payment_intent.payment_failed", payload))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, f.recorder.failed, "evt_1")
}
