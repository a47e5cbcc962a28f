package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yoockh/intervue/internal/models"
)

// TurnLogRepo is the append-only audit trail of committed turns.
type TurnLogRepo interface {
	Insert(ctx context.Context, log *models.TurnLog) error
	ListByInterview(ctx context.Context, interviewID string, limit int) ([]models.TurnLog, error)
}

type turnLogRepo struct {
	db *gorm.DB
}

func NewTurnLogRepo(db *gorm.DB) TurnLogRepo {
	return &turnLogRepo{db: db}
}

func (r *turnLogRepo) Insert(ctx context.Context, log *models.TurnLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *turnLogRepo) ListByInterview(ctx context.Context, interviewID string, limit int) ([]models.TurnLog, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []models.TurnLog
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
