package models

import (
	"time"

	"github.com/subdash/subdash/pkg/types"
	"gorm.io/datatypes"
)

// SubscriptionPlan is a sellable plan. Plans are soft-deleted by clearing
// IsActive so historical subscriptions keep a readable reference.
type SubscriptionPlan struct {
	ID            uint                        `gorm:"column:id;primaryKey" json:"id"`
	Name          string                      `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Description   *string                     `gorm:"column:description;type:text" json:"description"`
	Price         float64                     `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	BillingCycle  types.BillingCycle          `gorm:"column:billing_cycle;type:varchar(16);not null" json:"billing_cycle"`
	Features      datatypes.JSONSlice[string] `gorm:"column:features;type:jsonb;default:'[]'" json:"features"`
	StripePriceID *string                     `gorm:"column:stripe_price_id;type:varchar(64)" json:"stripe_price_id"`
	IsActive      bool                        `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt     time.Time                   `json:"created_at"`
}

func (SubscriptionPlan) TableName() string { return "subscription_plans" }
