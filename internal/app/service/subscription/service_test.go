package subscription

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.SubscriptionPlan{}, &models.Subscription{}))
	return NewService(db, zap.NewNop().Sugar())
}

func statusPtr(s types.SubscriptionStatus) *types.SubscriptionStatus { return &s }

func TestCreateDefaultsToTrial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &models.Subscription{UserID: 1, PlanID: 1})
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusTrial, sub.Status)
}

func TestUpdateCancelSetsCancelledAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &models.Subscription{UserID: 1, PlanID: 1, Status: types.SubscriptionStatusActive})
	require.NoError(t, err)

	_, err = svc.Update(ctx, sub.ID, &Patch{Status: statusPtr(types.SubscriptionStatusCancelled)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
}

func TestCancelledSubscriptionIsImmutable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, &models.Subscription{UserID: 1, PlanID: 1, Status: types.SubscriptionStatusActive})
	require.NoError(t, err)
	_, err = svc.Update(ctx, sub.ID, &Patch{Status: statusPtr(types.SubscriptionStatusCancelled)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, sub.ID, &Patch{Status: statusPtr(types.SubscriptionStatusActive)})
	assert.ErrorIs(t, err, ErrCancelledImmutable, "cancelled must never flip back")

	newPlan := uint(2)
	_, err = svc.Update(ctx, sub.ID, &Patch{PlanID: &newPlan})
	assert.ErrorIs(t, err, ErrCancelledImmutable, "cancelled rows accept no field changes")

	// Re-cancelling is an idempotent no-op
	got, err := svc.Update(ctx, sub.ID, &Patch{Status: statusPtr(types.SubscriptionStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusCancelled, got.Status)
}

func TestUpdateMissingSubscription(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Update(context.Background(), 404, &Patch{Status: statusPtr(types.SubscriptionStatusActive)})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestResolveStripeCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.FindOrCreateUser(ctx, "kim@example.com", "kim")
	require.NoError(t, err)
	require.NoError(t, svc.SetUserStripeInfo(ctx, user.ID, "cus_1", "sub_stripe_1"))

	// Mapped customer without a local subscription yet
	userID, subID, err := svc.ResolveStripeCustomer(ctx, "cus_1")
	require.NoError(t, err)
	require.NotNil(t, userID)
	assert.Equal(t, user.ID, *userID)
	assert.Nil(t, subID)

	sub, err := svc.Create(ctx, &models.Subscription{UserID: user.ID, PlanID: 1, Status: types.SubscriptionStatusActive})
	require.NoError(t, err)

	userID, subID, err = svc.ResolveStripeCustomer(ctx, "cus_1")
	require.NoError(t, err)
	require.NotNil(t, userID)
	require.NotNil(t, subID)
	assert.Equal(t, sub.ID, *subID)

	// Unknown customer is a normal outcome, not an error
	userID, subID, err = svc.ResolveStripeCustomer(ctx, "cus_unknown")
	require.NoError(t, err)
	assert.Nil(t, userID)
	assert.Nil(t, subID)
}

func TestFindOrCreateUserReusesByEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.FindOrCreateUser(ctx, "kim@example.com", "kim")
	require.NoError(t, err)
	second, err := svc.FindOrCreateUser(ctx, "kim@example.com", "someone else")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
