package plan

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/types"
)

func strPtr(s string) *string { return &s }

var defaultPlans = []*models.SubscriptionPlan{
	{
		Name:         "Basic Plan",
		Description:  strPtr("Perfect for small teams and individuals"),
		Price:        29,
		BillingCycle: types.BillingCycleMonthly,
		Features:     datatypes.NewJSONSlice([]string{"Up to 5 team members", "Basic analytics", "Email support"}),
		IsActive:     true,
	},
	{
		Name:         "Professional",
		Description:  strPtr("Advanced features for growing businesses"),
		Price:        99,
		BillingCycle: types.BillingCycleMonthly,
		Features:     datatypes.NewJSONSlice([]string{"Up to 25 team members", "Advanced analytics", "Priority support"}),
		IsActive:     true,
	},
	{
		Name:         "Enterprise",
		Description:  strPtr("Complete solution for large organizations"),
		Price:        299,
		BillingCycle: types.BillingCycleMonthly,
		Features:     datatypes.NewJSONSlice([]string{"Unlimited team members", "Custom integrations", "Dedicated support"}),
		IsActive:     true,
	},
}

// SeedDefaultPlans installs the starter catalog when the table is empty.
func SeedDefaultPlans(l *zap.SugaredLogger, db *gorm.DB) error {
	ctx := context.Background()
	var count int64
	if err := db.WithContext(ctx).Model(&models.SubscriptionPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&defaultPlans).Error; err != nil {
		return err
	}
	l.Infow("seeded default subscription plans", "count", len(defaultPlans))
	return nil
}
