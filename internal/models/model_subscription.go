package models

import (
	"time"

	"github.com/subdash/subdash/pkg/types"
)

// Subscription ties a user to a plan. A cancelled subscription is never
// reactivated in place; a new row is created instead. Rows are never
// deleted, only status-flipped.
type Subscription struct {
	ID                   uint                     `gorm:"column:id;primaryKey" json:"id"`
	UserID               uint                     `gorm:"column:user_id;not null;index" json:"user_id"`
	PlanID               uint                     `gorm:"column:plan_id;not null;index" json:"plan_id"`
	Status               types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	StripeSubscriptionID *string                  `gorm:"column:stripe_subscription_id;type:varchar(64);index" json:"stripe_subscription_id"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end" json:"current_period_end"`
	CancelledAt          *time.Time               `gorm:"column:cancelled_at" json:"cancelled_at"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`

	User *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (Subscription) TableName() string { return "subscriptions" }
