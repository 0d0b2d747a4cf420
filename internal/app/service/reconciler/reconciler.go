package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/logctx"
	"github.com/subdash/subdash/pkg/types"
)

// ErrInvalidPayload wraps payload parse failures so the HTTP layer can map
// them to a 4xx instead of a 5xx.
var ErrInvalidPayload = errors.New("invalid event payload")

const retryInterval = 24 * time.Hour

// Broadcaster fans an event envelope out to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// IssueStore persists payment issues.
type IssueStore interface {
	Create(ctx context.Context, issue *models.PaymentIssue) (*models.PaymentIssue, error)
}

// CustomerResolver maps a processor customer id to local ids. Unknown
// customers yield nil ids with no error.
type CustomerResolver interface {
	ResolveStripeCustomer(ctx context.Context, stripeCustomerID string) (userID, subscriptionID *uint, err error)
}

// EventRecorder is the dedup store for at-least-once webhook delivery.
type EventRecorder interface {
	Claim(ctx context.Context, eventID, eventType string, data []byte) (fresh bool, err error)
	MarkFailed(ctx context.Context, eventID string)
}

// HandlerFunc processes one parsed processor event.
type HandlerFunc func(ctx context.Context, event stripe.Event) error

// Service translates processor events into local state changes and outbound
// broadcasts. One registered handler per event type; unknown types are
// logged no-ops.
type Service struct {
	resolver    CustomerResolver
	issues      IssueStore
	events      EventRecorder
	broadcaster Broadcaster
	log         *zap.SugaredLogger

	handlers map[string]HandlerFunc
}

func New(resolver CustomerResolver, issues IssueStore, events EventRecorder, b Broadcaster, log *zap.SugaredLogger) *Service {
	s := &Service{
		resolver:    resolver,
		issues:      issues,
		events:      events,
		broadcaster: b,
		log:         log,
	}
	s.handlers = map[string]HandlerFunc{
		"payment_intent.succeeded":      s.handlePaymentSucceeded,
		"payment_intent.payment_failed": s.handlePaymentFailed,
		"invoice.payment_succeeded":     s.handleInvoicePaid,
		"customer.subscription.created": s.handleSubscriptionCreated,
		"customer.subscription.updated": s.handleSubscriptionUpdated,
		"customer.subscription.deleted": s.handleSubscriptionDeleted,
	}
	return s
}

// Handle runs the registered handler for the event, deduplicating by
// processor event id. Redelivered already-handled events are acknowledged
// without side effects; a failed attempt releases its claim so the
// processor's retry gets another chance.
func (s *Service) Handle(ctx context.Context, event stripe.Event) error {
	log := logctx.FromCtx(ctx, s.log)

	// Dev-mode unsigned payloads may lack an event id; those skip dedup.
	if event.ID != "" {
		fresh, err := s.events.Claim(ctx, event.ID, string(event.Type), rawData(event))
		if err != nil {
			return err
		}
		if !fresh {
			log.Infow("duplicate webhook delivery skipped", "event_id", event.ID, "type", event.Type)
			return nil
		}
	}

	h, ok := s.handlers[string(event.Type)]
	if !ok {
		log.Infow("unhandled webhook event type", "type", event.Type)
		return nil
	}
	if err := h(ctx, event); err != nil {
		if event.ID != "" {
			s.events.MarkFailed(ctx, event.ID)
		}
		return err
	}
	return nil
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(rawData(event), &pi); err != nil {
		return fmt.Errorf("%w: payment intent: %v", ErrInvalidPayload, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment succeeded", "amount", pi.Amount, "customer", customerID(pi.Customer))

	s.broadcaster.Broadcast(BroadcastPaymentSuccess, PaymentSuccessEvent{
		Amount:     centsToMajor(pi.Amount),
		Currency:   string(pi.Currency),
		CustomerID: customerID(pi.Customer),
	})
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(rawData(event), &pi); err != nil {
		return fmt.Errorf("%w: payment intent: %v", ErrInvalidPayload, err)
	}
	log := logctx.FromCtx(ctx, s.log)

	reason := "Payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}

	cust := customerID(pi.Customer)
	if cust != "" {
		userID, subID, err := s.resolver.ResolveStripeCustomer(ctx, cust)
		if err != nil {
			return err
		}
		if userID == nil {
			// Unmapped customer: record the issue anyway, unattributed, so
			// the failure is not lost.
			log.Warnw("payment failure for unmapped stripe customer", "customer_id", cust)
		}
		retryAt := time.Now().UTC().Add(retryInterval)
		issue := &models.PaymentIssue{
			UserID:         userID,
			SubscriptionID: subID,
			Reason:         reason,
			Amount:         centsToMajor(pi.Amount),
			Status:         types.PaymentIssueStatusPending,
			RetryDate:      &retryAt,
		}
		if _, err := s.issues.Create(ctx, issue); err != nil {
			return err
		}
	}

	s.broadcaster.Broadcast(BroadcastPaymentFailed, PaymentFailedEvent{
		Amount:     centsToMajor(pi.Amount),
		Reason:     reason,
		CustomerID: cust,
	})
	return nil
}

func (s *Service) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(rawData(event), &inv); err != nil {
		return fmt.Errorf("%w: invoice: %v", ErrInvalidPayload, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("invoice paid", "amount", inv.AmountPaid, "customer", customerID(inv.Customer))

	s.broadcaster.Broadcast(BroadcastInvoicePaid, InvoicePaidEvent{
		Amount:         centsToMajor(inv.AmountPaid),
		SubscriptionID: subscriptionIDFromInvoice(inv),
		CustomerID:     customerID(inv.Customer),
	})
	return nil
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, event stripe.Event) error {
	// Local subscription records are created by the plan-subscribe flow;
	// this event only notifies dashboards.
	return s.broadcastSubscription(ctx, event, BroadcastSubscriptionCreated, true)
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	return s.broadcastSubscription(ctx, event, BroadcastSubscriptionUpdated, true)
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	return s.broadcastSubscription(ctx, event, BroadcastSubscriptionCancelled, false)
}

func (s *Service) broadcastSubscription(ctx context.Context, event stripe.Event, tag string, withStatus bool) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(rawData(event), &sub); err != nil {
		return fmt.Errorf("%w: subscription: %v", ErrInvalidPayload, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription event", "tag", tag, "subscription", sub.ID)

	data := SubscriptionEvent{
		SubscriptionID: sub.ID,
		CustomerID:     customerID(sub.Customer),
	}
	if withStatus {
		data.Status = string(sub.Status)
	}
	s.broadcaster.Broadcast(tag, data)
	return nil
}

func rawData(event stripe.Event) []byte {
	if event.Data == nil {
		return nil
	}
	return event.Data.Raw
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// subscriptionIDFromInvoice digs the subscription id out of the invoice's
// parent, which is where current API versions put it.
func subscriptionIDFromInvoice(inv stripe.Invoice) string {
	if inv.Parent != nil &&
		inv.Parent.SubscriptionDetails != nil &&
		inv.Parent.SubscriptionDetails.Subscription != nil {
		return inv.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

func centsToMajor(cents int64) float64 {
	return float64(cents) / 100
}
