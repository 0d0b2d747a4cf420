package statistics

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/types"
)

// DashboardMetrics is derived on demand; nothing here is persisted.
type DashboardMetrics struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	ChurnRate           float64 `json:"churnRate"`
	FailedPayments      int     `json:"failedPayments"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// DashboardMetrics scans all subscriptions, plans and payment issues and
// computes the dashboard aggregates. O(n) per call; fine at this scale.
func (s *Service) DashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	var plans []*models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	var issues []*models.PaymentIssue
	if err := s.db.WithContext(ctx).Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("load payment issues: %w", err)
	}
	return Compute(subs, plans, issues), nil
}

// Compute derives the dashboard aggregates from loaded rows. Total revenue
// sums the plan price of every active subscription; churn is
// cancelled/total as a percentage with one decimal place.
func Compute(subs []*models.Subscription, plans []*models.SubscriptionPlan, issues []*models.PaymentIssue) *DashboardMetrics {
	planByID := lo.KeyBy(plans, func(p *models.SubscriptionPlan) uint { return p.ID })

	active := lo.Filter(subs, func(s *models.Subscription, _ int) bool {
		return s.Status == types.SubscriptionStatusActive
	})
	totalRevenue := lo.SumBy(active, func(s *models.Subscription) float64 {
		if p, ok := planByID[s.PlanID]; ok {
			return p.Price
		}
		return 0
	})

	cancelled := lo.CountBy(subs, func(s *models.Subscription) bool {
		return s.Status == types.SubscriptionStatusCancelled
	})
	total := len(subs)
	if total == 0 {
		total = 1
	}
	churn := float64(cancelled) / float64(total) * 100

	pending := lo.CountBy(issues, func(i *models.PaymentIssue) bool {
		return i.Status == types.PaymentIssueStatusPending
	})

	return &DashboardMetrics{
		TotalRevenue:        totalRevenue,
		ActiveSubscriptions: len(active),
		ChurnRate:           math.Round(churn*10) / 10,
		FailedPayments:      pending,
	}
}
