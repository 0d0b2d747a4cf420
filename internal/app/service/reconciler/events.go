package reconciler

// Broadcast tags pushed to dashboard clients. Each tag has its own payload
// shape below so consumers can switch exhaustively instead of poking at
// untyped maps.
const (
	BroadcastPaymentSuccess        = "payment_success"
	BroadcastPaymentFailed         = "payment_failed"
	BroadcastInvoicePaid           = "invoice_paid"
	BroadcastSubscriptionCreated   = "subscription_created"
	BroadcastSubscriptionUpdated   = "subscription_updated"
	BroadcastSubscriptionCancelled = "subscription_cancelled"
)

// PaymentSuccessEvent reports a settled one-time payment. Amount is in major
// currency units.
type PaymentSuccessEvent struct {
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	CustomerID string  `json:"customerId"`
}

// PaymentFailedEvent reports a failed charge.
type PaymentFailedEvent struct {
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
	CustomerID string  `json:"customerId"`
}

// InvoicePaidEvent reports a settled subscription invoice.
type InvoicePaidEvent struct {
	Amount         float64 `json:"amount"`
	SubscriptionID string  `json:"subscriptionId"`
	CustomerID     string  `json:"customerId"`
}

// SubscriptionEvent reports a processor-side subscription lifecycle change.
// Status is empty for cancellations.
type SubscriptionEvent struct {
	SubscriptionID string `json:"subscriptionId"`
	CustomerID     string `json:"customerId"`
	Status         string `json:"status,omitempty"`
}
