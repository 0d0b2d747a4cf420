package paymentissue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/logctx"
	"github.com/subdash/subdash/pkg/types"
)

var ErrIssueNotFound = errors.New("payment issue not found")

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) List(ctx context.Context) ([]*models.PaymentIssue, error) {
	var issues []*models.PaymentIssue
	err := s.db.WithContext(ctx).Preload("User").Preload("Subscription").Order("id").Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("list payment issues: %w", err)
	}
	return issues, nil
}

func (s *Service) Create(ctx context.Context, issue *models.PaymentIssue) (*models.PaymentIssue, error) {
	if issue.Status == "" {
		issue.Status = types.PaymentIssueStatusPending
	}
	if err := s.db.WithContext(ctx).Create(issue).Error; err != nil {
		return nil, fmt.Errorf("create payment issue: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_issue_created",
		"issue_id", issue.ID, "amount", issue.Amount, "reason", issue.Reason)
	return issue, nil
}

// Resolve marks the issue resolved with a resolution timestamp. Issues are
// never deleted.
func (s *Service) Resolve(ctx context.Context, id uint) (*models.PaymentIssue, error) {
	var issue models.PaymentIssue
	if err := s.db.WithContext(ctx).First(&issue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("get payment issue: %w", err)
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":      types.PaymentIssueStatusResolved,
		"resolved_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&issue).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("resolve payment issue: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_issue_resolved", "issue_id", id)
	return &issue, nil
}
