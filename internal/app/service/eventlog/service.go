package eventlog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subdash/subdash/internal/models"
	"github.com/subdash/subdash/pkg/logctx"
	"github.com/subdash/subdash/pkg/tool"
)

// Service records processed webhook events. The unique event-id column makes
// it double as the dedup store that keeps event handling idempotent under
// at-least-once delivery.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Claim records the event as handled and reports whether this delivery is
// the first. A redelivered event id yields fresh=false unless the previous
// attempt failed, in which case the claim is taken over so the retry can run.
func (s *Service) Claim(ctx context.Context, eventID, eventType string, data []byte) (fresh bool, err error) {
	row := &models.WebhookEventLog{
		ID:        tool.GenerateUUIDV7(),
		EventID:   eventID,
		EventType: eventType,
		TraceID:   traceID(ctx),
		Data:      datatypes.JSON(data),
		Status:    models.WebhookEventLogStatusHandled,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("claim webhook event: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Event id seen before. Retake the claim only if the prior attempt
	// failed. The status guard in the WHERE clause makes the retake atomic:
	// of two concurrent redeliveries at most one flips the row.
	retake := s.db.WithContext(ctx).Model(&models.WebhookEventLog{}).
		Where("event_id = ? AND status = ?", eventID, models.WebhookEventLogStatusHandleFailed).
		Update("status", models.WebhookEventLogStatusHandled)
	if retake.Error != nil {
		return false, fmt.Errorf("retake webhook event claim: %w", retake.Error)
	}
	return retake.RowsAffected > 0, nil
}

// MarkFailed flags the event so a later redelivery is allowed to retry it.
func (s *Service) MarkFailed(ctx context.Context, eventID string) {
	err := s.db.WithContext(ctx).Model(&models.WebhookEventLog{}).
		Where("event_id = ?", eventID).
		Update("status", models.WebhookEventLogStatusHandleFailed).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("mark webhook event failed", "event_id", eventID, "err", err)
	}
}

func traceID(ctx context.Context) string {
	if tid, ok := ctx.Value("traceID").(string); ok {
		return tid
	}
	return ""
}
