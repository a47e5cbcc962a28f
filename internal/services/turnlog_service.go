package services

import (
	"context"

	"github.com/yoockh/intervue/internal/models"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	pgrepo "github.com/yoockh/intervue/internal/repositories/postgres"
	"github.com/yoockh/intervue/internal/utils"
)

const defaultTurnLogLimit = 200

type TurnLogService interface {
	List(ctx context.Context, id, userID string) ([]models.TurnLog, error)
}

type turnLogService struct {
	interviews mongorepo.InterviewRepository
	logs       pgrepo.TurnLogRepo
}

func NewTurnLogService(interviews mongorepo.InterviewRepository, logs pgrepo.TurnLogRepo) TurnLogService {
	return &turnLogService{interviews: interviews, logs: logs}
}

func (s *turnLogService) List(ctx context.Context, id, userID string) ([]models.TurnLog, error) {
	const op = "TurnLogService.List"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}
	if _, err := loadOwned(ctx, s.interviews, op, oid, userID); err != nil {
		return nil, err
	}
	rows, err := s.logs.ListByInterview(ctx, id, defaultTurnLogLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turns", err)
	}
	return rows, nil
}
