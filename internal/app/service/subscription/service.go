package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/logctx"
	"github.com/subdash/subdash/pkg/types"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// ErrCancelledImmutable is returned when an update targets a cancelled
// subscription. Cancelled is terminal: a new subscription is created instead
// of modifying the old row.
var ErrCancelledImmutable = errors.New("cancelled subscription cannot be modified")

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) List(ctx context.Context) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).Preload("User").Preload("Plan").Order("id").Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// Recent returns the n most recently created subscriptions.
func (s *Service) Recent(ctx context.Context, n int) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).Preload("User").Preload("Plan").
		Order("created_at DESC").Limit(n).Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list recent subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Preload("User").Preload("Plan").First(&sub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (s *Service) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if sub.Status == "" {
		sub.Status = types.SubscriptionStatusTrial
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription_created",
		"subscription_id", sub.ID, "user_id", sub.UserID, "plan_id", sub.PlanID, "status", sub.Status)
	return sub, nil
}

// Patch carries a partial subscription update; nil fields are untouched.
type Patch struct {
	PlanID             *uint                     `json:"plan_id"`
	Status             *types.SubscriptionStatus `json:"status"`
	CurrentPeriodStart *time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time                `json:"current_period_end"`
}

func (s *Service) Update(ctx context.Context, id uint, patch *Patch) (*models.Subscription, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status == types.SubscriptionStatusCancelled {
		// Re-cancelling is an idempotent no-op; everything else is refused.
		if patch.PlanID == nil && patch.CurrentPeriodStart == nil && patch.CurrentPeriodEnd == nil &&
			(patch.Status == nil || *patch.Status == types.SubscriptionStatusCancelled) {
			return sub, nil
		}
		return nil, ErrCancelledImmutable
	}

	updates := map[string]any{}
	if patch.Status != nil && *patch.Status != sub.Status {
		updates["status"] = *patch.Status
		if *patch.Status == types.SubscriptionStatusCancelled {
			updates["cancelled_at"] = time.Now().UTC()
		}
	}
	if patch.PlanID != nil {
		updates["plan_id"] = *patch.PlanID
	}
	if patch.CurrentPeriodStart != nil {
		updates["current_period_start"] = *patch.CurrentPeriodStart
	}
	if patch.CurrentPeriodEnd != nil {
		updates["current_period_end"] = *patch.CurrentPeriodEnd
	}
	if len(updates) == 0 {
		return sub, nil
	}
	if err := s.db.WithContext(ctx).Model(sub).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

// FindOrCreateUser returns the user with the given email, creating a minimal
// record when none exists. Used by the plan-subscribe flow.
func (s *Service) FindOrCreateUser(ctx context.Context, email, name string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user = models.User{Username: name, Email: email}
	if user.Username == "" {
		user.Username = email
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// SetUserStripeInfo records the processor identifiers on the user row.
func (s *Service) SetUserStripeInfo(ctx context.Context, userID uint, customerID, subscriptionID string) error {
	updates := map[string]any{"stripe_customer_id": customerID}
	if subscriptionID != "" {
		updates["stripe_subscription_id"] = subscriptionID
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return fmt.Errorf("set user stripe info: %w", err)
	}
	return nil
}

// ResolveStripeCustomer maps a processor customer id to local user and
// subscription ids. An unknown customer is a normal outcome and yields nil
// ids with no error; the caller decides the fallback policy.
func (s *Service) ResolveStripeCustomer(ctx context.Context, stripeCustomerID string) (userID, subscriptionID *uint, err error) {
	if stripeCustomerID == "" {
		return nil, nil, nil
	}
	var user models.User
	dberr := s.db.WithContext(ctx).Where("stripe_customer_id = ?", stripeCustomerID).First(&user).Error
	if dberr != nil {
		if errors.Is(dberr, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("resolve stripe customer: %w", dberr)
	}

	var sub models.Subscription
	dberr = s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at DESC").First(&sub).Error
	if dberr != nil {
		if errors.Is(dberr, gorm.ErrRecordNotFound) {
			return &user.ID, nil, nil
		}
		return nil, nil, fmt.Errorf("resolve stripe customer subscription: %w", dberr)
	}
	return &user.ID, &sub.ID, nil
}
