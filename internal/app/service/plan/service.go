package plan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/logctx"
	"github.com/subdash/subdash/pkg/types"
)

var ErrPlanNotFound = errors.New("plan not found")

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// List returns active plans only. Soft-deleted plans stay out of the
// catalog but remain loadable by id for historical subscriptions.
func (s *Service) List(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	var plans []*models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

type CreateRequest struct {
	Name          string             `json:"name" binding:"required"`
	Description   *string            `json:"description"`
	Price         float64            `json:"price" binding:"required"`
	BillingCycle  types.BillingCycle `json:"billing_cycle" binding:"required"`
	Features      []string           `json:"features"`
	StripePriceID *string            `json:"stripe_price_id"`
	IsActive      *bool              `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.SubscriptionPlan, error) {
	if !req.BillingCycle.Valid() {
		return nil, fmt.Errorf("invalid billing cycle %q", req.BillingCycle)
	}
	plan := &models.SubscriptionPlan{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		BillingCycle:  req.BillingCycle,
		Features:      datatypes.NewJSONSlice(req.Features),
		StripePriceID: req.StripePriceID,
		IsActive:      true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_created", "plan_id", plan.ID, "name", plan.Name)
	return plan, nil
}

// Patch carries a partial plan update; nil fields are left untouched.
type Patch struct {
	Name          *string             `json:"name"`
	Description   *string             `json:"description"`
	Price         *float64            `json:"price"`
	BillingCycle  *types.BillingCycle `json:"billing_cycle"`
	Features      *[]string           `json:"features"`
	StripePriceID *string             `json:"stripe_price_id"`
	IsActive      *bool               `json:"is_active"`
}

func (s *Service) Update(ctx context.Context, id uint, patch *Patch) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.BillingCycle != nil {
		if !patch.BillingCycle.Valid() {
			return nil, fmt.Errorf("invalid billing cycle %q", *patch.BillingCycle)
		}
		updates["billing_cycle"] = *patch.BillingCycle
	}
	if patch.Features != nil {
		updates["features"] = datatypes.NewJSONSlice(*patch.Features)
	}
	if patch.StripePriceID != nil {
		updates["stripe_price_id"] = *patch.StripePriceID
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) == 0 {
		return plan, nil
	}
	if err := s.db.WithContext(ctx).Model(plan).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// SoftDelete clears the active flag. The row is kept so subscriptions
// referencing the plan remain readable.
func (s *Service) SoftDelete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.SubscriptionPlan{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_soft_deleted", "plan_id", id)
	return nil
}
