package eventlog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WebhookEventLog{}))
	return NewService(db, zap.NewNop().Sugar())
}

func TestClaimFirstDelivery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	fresh, err := svc.Claim(ctx, "evt_1", "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestClaimDuplicateDelivery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "evt_1", "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)

	fresh, err := svc.Claim(ctx, "evt_1", "payment_intent.succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, fresh, "a handled event must not be claimed twice")
}

func TestClaimRetakenOnceAfterFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "evt_1", "payment_intent.payment_failed", []byte(`{}`))
	require.NoError(t, err)
	svc.MarkFailed(ctx, "evt_1")

	// First redelivery after the failure retakes the claim; any further
	// redelivery of the same id must lose.
	fresh, err := svc.Claim(ctx, "evt_1", "payment_intent.payment_failed", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, fresh, "failed events are retried on redelivery")

	fresh, err = svc.Claim(ctx, "evt_1", "payment_intent.payment_failed", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, fresh, "only one redelivery wins the retake")
}

func TestClaimDistinctEvents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	fresh, err := svc.Claim(ctx, "evt_1", "invoice.payment_succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = svc.Claim(ctx, "evt_2", "invoice.payment_succeeded", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, fresh)
}
