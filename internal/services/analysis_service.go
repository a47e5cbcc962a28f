package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/analysis"
	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/metrics"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/providers/llm"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	"github.com/yoockh/intervue/internal/utils"
)

// AnalysisQueue hands an interview id to the background analysis workers.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, interviewID string) error
}

type RawAnalysis struct {
	AnalysisRaw *string    `json:"analysisRaw"`
	AnalysisAt  *time.Time `json:"analysisAt"`
}

type AnalysisService interface {
	Run(ctx context.Context, id, userID string) (*models.Analysis, error)
	Enqueue(ctx context.Context, id, userID string) error
	Raw(ctx context.Context, id, userID string) (RawAnalysis, error)
	// RunJob analyzes without an ownership check. Used by workers.
	RunJob(ctx context.Context, id string) (*models.Analysis, error)
}

type AnalysisServiceDeps struct {
	Repo      mongorepo.InterviewRepository
	LLM       llm.Completer
	Finalizer *analysis.Finalizer
	Queue     AnalysisQueue // optional
	Events    events.Publisher
	Timeout   time.Duration
	Logger    *logrus.Logger
}

type analysisService struct {
	deps AnalysisServiceDeps
}

func NewAnalysisService(d AnalysisServiceDeps) AnalysisService {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Timeout <= 0 {
		d.Timeout = 60 * time.Second
	}
	if d.Finalizer == nil {
		d.Finalizer = analysis.NewFinalizer(d.LLM, d.Timeout, d.Logger)
	}
	return &analysisService{deps: d}
}

func (s *analysisService) Run(ctx context.Context, id, userID string) (*models.Analysis, error) {
	const op = "AnalysisService.Run"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}
	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, op, sess)
}

func (s *analysisService) RunJob(ctx context.Context, id string) (*models.Analysis, error) {
	const op = "AnalysisService.RunJob"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}
	sess, err := s.deps.Repo.GetByID(ctx, oid)
	if err != nil {
		return nil, mapRepoErr(op, err)
	}
	return s.analyze(ctx, op, sess)
}

func (s *analysisService) analyze(ctx context.Context, op string, sess *models.InterviewSession) (*models.Analysis, error) {
	if !hasMaterial(sess) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "nothing to analyze: no transcript or answers", nil)
	}

	log := s.deps.Logger.WithField("interview_id", sess.ID.Hex())

	// A failed scoring call still goes through the finalizer, which ends in
	// the fallback shape.
	text := ""
	if s.deps.LLM != nil {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		reply, err := s.deps.LLM.Complete(cctx, analysis.Messages(sess))
		cancel()
		if err != nil {
			log.WithError(err).Warn("analysis model call failed")
		} else {
			text = strings.TrimSpace(reply)
		}
	}

	res := s.deps.Finalizer.Finalize(ctx, text)
	metrics.AnalysisStageTotal.WithLabelValues(string(res.Stage)).Inc()

	now := time.Now().UTC()
	a, raw := res.Analysis, res.Raw
	patch := models.InterviewPatch{
		Analysis:    &a,
		AnalysisRaw: &raw,
		AnalysisAt:  &now,
		UpdatedAt:   now,
	}
	if err := persist(ctx, s.deps.Repo, op, sess.ID, patch); err != nil {
		log.WithError(err).Error("failed to analyze interview")
		_ = s.deps.Events.Publish(ctx, events.Event{
			Type:        events.TypeAnalysisError,
			InterviewID: sess.ID.Hex(),
			Message:     "failed to analyze interview",
		})
		return nil, utils.E(utils.CodeInternal, op, "failed to analyze interview", err)
	}

	log.WithField("stage", string(res.Stage)).Info("analysis stored")
	_ = s.deps.Events.Publish(ctx, events.Event{
		Type:        events.TypeAnalysisReady,
		InterviewID: sess.ID.Hex(),
		Payload:     a,
	})
	return &a, nil
}

// hasMaterial reports whether there is a transcript or at least one answer.
func hasMaterial(sess *models.InterviewSession) bool {
	if sess.Transcript != nil && strings.TrimSpace(*sess.Transcript) != "" {
		return true
	}
	for _, m := range sess.Context {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}

func (s *analysisService) Enqueue(ctx context.Context, id, userID string) error {
	const op = "AnalysisService.Enqueue"

	if s.deps.Queue == nil {
		return utils.E(utils.CodeUnavailable, op, "async analysis is not configured", nil)
	}
	oid, err := parseInterviewID(op, id)
	if err != nil {
		return err
	}
	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return err
	}
	if !hasMaterial(sess) {
		return utils.E(utils.CodeInvalidArgument, op, "nothing to analyze: no transcript or answers", nil)
	}
	if err := s.deps.Queue.Enqueue(ctx, id); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue analysis", err)
	}
	return nil
}

func (s *analysisService) Raw(ctx context.Context, id, userID string) (RawAnalysis, error) {
	const op = "AnalysisService.Raw"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return RawAnalysis{}, err
	}
	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return RawAnalysis{}, err
	}
	return RawAnalysis{AnalysisRaw: sess.AnalysisRaw, AnalysisAt: sess.AnalysisAt}, nil
}
