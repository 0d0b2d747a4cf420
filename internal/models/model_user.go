package models

import "time"

// User is a dashboard customer record. StripeCustomerID links the row to the
// payment processor and is how webhook events are resolved back to a user.
type User struct {
	ID                   uint      `gorm:"column:id;primaryKey" json:"id"`
	Username             string    `gorm:"column:username;type:varchar(64);not null;uniqueIndex" json:"username"`
	Email                string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Password             string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	StripeCustomerID     *string   `gorm:"column:stripe_customer_id;type:varchar(64);index" json:"stripe_customer_id"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id;type:varchar(64)" json:"stripe_subscription_id"`
	CreatedAt            time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
