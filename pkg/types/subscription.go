package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
)

type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleAnnually  BillingCycle = "annually"
)

func (c BillingCycle) Valid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleAnnually:
		return true
	}
	return false
}

type PaymentIssueStatus string

const (
	PaymentIssueStatusPending  PaymentIssueStatus = "pending"
	PaymentIssueStatusResolved PaymentIssueStatus = "resolved"
	PaymentIssueStatusFailed   PaymentIssueStatus = "failed"
)
