package models

import (
	"time"

	"github.com/subdash/subdash/pkg/types"
)

// PaymentIssue records a failed payment pending remediation. UserID and
// SubscriptionID are nullable: a failure for a processor customer that has
// no local mapping is still recorded, just unattributed.
type PaymentIssue struct {
	ID             uint                     `gorm:"column:id;primaryKey" json:"id"`
	SubscriptionID *uint                    `gorm:"column:subscription_id;index" json:"subscription_id"`
	UserID         *uint                    `gorm:"column:user_id;index" json:"user_id"`
	Reason         string                   `gorm:"column:reason;type:text;not null" json:"reason"`
	Amount         float64                  `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Status         types.PaymentIssueStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	RetryDate      *time.Time               `gorm:"column:retry_date" json:"retry_date"`
	ResolvedAt     *time.Time               `gorm:"column:resolved_at" json:"resolved_at"`
	CreatedAt      time.Time                `json:"created_at"`

	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
}

func (PaymentIssue) TableName() string { return "payment_issues" }
