package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/cache"
	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/locks"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/models"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	"github.com/yoockh/intervue/internal/storage"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

type CreateInterviewInput struct {
	OwnerID  string
	RoleMeta models.RoleMeta
	Settings models.Settings
}

type CompleteInterviewInput struct {
	Transcript string
	// MediaRef is kept as given; Recording, when set, is uploaded and its
	// reference replaces MediaRef.
	MediaRef  *string
	Recording []byte
}

type InterviewService interface {
	Create(ctx context.Context, in CreateInterviewInput) (*models.InterviewSession, error)
	Get(ctx context.Context, id, userID string) (*models.InterviewSession, error)
	GetAny(ctx context.Context, id string) (*models.InterviewSession, error)
	List(ctx context.Context, userID string) ([]models.InterviewSummary, error)
	Complete(ctx context.Context, id, userID string, in CompleteInterviewInput) (*models.InterviewSession, error)
	// RecordingURL returns a short-lived download link for the stored recording.
	RecordingURL(ctx context.Context, id, userID string) (string, error)
}

type InterviewServiceDeps struct {
	Repo      mongorepo.InterviewRepository
	Questions *turn.QuestionGenerator
	Cache     cache.QuestionCache
	CacheTTL  time.Duration
	Locker    locks.Locker
	Uploader  storage.Uploader
	Signer    storage.Signer
	SignedTTL time.Duration
	Events    events.Publisher
	Logger    *logrus.Logger
}

type interviewService struct {
	deps InterviewServiceDeps
}

func NewInterviewService(d InterviewServiceDeps) InterviewService {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.SignedTTL <= 0 {
		d.SignedTTL = 15 * time.Minute
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 24 * time.Hour
	}
	return &interviewService{deps: d}
}

func (s *interviewService) Create(ctx context.Context, in CreateInterviewInput) (*models.InterviewSession, error) {
	const op = "InterviewService.Create"

	if in.OwnerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner is required", nil)
	}
	if strings.TrimSpace(in.RoleMeta.Company) == "" || strings.TrimSpace(in.RoleMeta.Position) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company and position are required", nil)
	}

	settings := in.Settings.Normalized()
	systemPrompt := turn.BuildSystemPrompt(in.RoleMeta, settings)
	questions := s.questions(ctx, systemPrompt, in.RoleMeta, settings)

	now := time.Now().UTC()
	sess := &models.InterviewSession{
		OwnerID:   in.OwnerID,
		RoleMeta:  in.RoleMeta,
		Settings:  settings,
		Questions: questions,
		Cursor:    0,
		Context: []models.Message{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleAssistant, Content: questions[0]},
		},
		Status:    models.StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.deps.Repo.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}
	return sess, nil
}

// questions consults the cache before paying for generation. Cache errors
// only cost the shortcut.
func (s *interviewService) questions(ctx context.Context, systemPrompt string, meta models.RoleMeta, settings models.Settings) []string {
	key := cache.QuestionSetKey(meta, settings)
	if s.deps.Cache != nil {
		qs, hit, err := s.deps.Cache.Get(ctx, key)
		if err != nil {
			s.deps.Logger.WithError(err).Warn("question cache read failed")
		}
		if hit {
			return qs
		}
	}

	qs := s.deps.Questions.Generate(ctx, systemPrompt, meta, settings)
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, key, qs, s.deps.CacheTTL); err != nil {
			s.deps.Logger.WithError(err).Warn("question cache write failed")
		}
	}
	return qs
}

func (s *interviewService) Get(ctx context.Context, id, userID string) (*models.InterviewSession, error) {
	const op = "InterviewService.Get"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}
	return loadOwned(ctx, s.deps.Repo, op, oid, userID)
}

// GetAny skips the ownership check; admin routes only.
func (s *interviewService) GetAny(ctx context.Context, id string) (*models.InterviewSession, error) {
	const op = "InterviewService.GetAny"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}
	sess, err := s.deps.Repo.GetByID(ctx, oid)
	if err != nil {
		return nil, mapRepoErr(op, err)
	}
	return sess, nil
}

func (s *interviewService) List(ctx context.Context, userID string) ([]models.InterviewSummary, error) {
	const op = "InterviewService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.deps.Repo.ListByOwner(ctx, userID, 100)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}

	out := make([]models.InterviewSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

func (s *interviewService) Complete(ctx context.Context, id, userID string, in CompleteInterviewInput) (*models.InterviewSession, error) {
	const op = "InterviewService.Complete"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return nil, err
	}

	release, err := acquire(ctx, s.deps.Locker, op, oid)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return nil, err
	}
	if !sess.Status.CanTransition(models.StatusCompleted) {
		return nil, utils.E(utils.CodeInvalidState, op, "interview cannot be completed from status "+string(sess.Status), nil)
	}

	now := time.Now().UTC()
	mediaRef := in.MediaRef
	if len(in.Recording) > 0 {
		ref, err := s.uploadRecording(ctx, op, sess.ID.Hex(), in.Recording, now)
		if err != nil {
			return nil, err
		}
		mediaRef = &ref
	}

	status := models.StatusCompleted
	transcript := in.Transcript
	patch := models.InterviewPatch{
		Status:      &status,
		Transcript:  &transcript,
		MediaRef:    mediaRef,
		CompletedAt: &now,
		UpdatedAt:   now,
	}
	if err := persist(ctx, s.deps.Repo, op, oid, patch); err != nil {
		return nil, err
	}

	sess.Status = status
	sess.Transcript = &transcript
	if mediaRef != nil {
		sess.MediaRef = mediaRef
	}
	sess.CompletedAt = &now
	sess.UpdatedAt = now

	_ = s.deps.Events.Publish(ctx, events.Event{
		Type:        events.TypeStatus,
		InterviewID: sess.ID.Hex(),
		Status:      string(status),
	})
	return sess, nil
}

func (s *interviewService) uploadRecording(ctx context.Context, op, interviewID string, data []byte, now time.Time) (string, error) {
	if s.deps.Uploader == nil {
		return "", utils.E(utils.CodeUnavailable, op, "recording storage is not configured", nil)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "video/") && !strings.HasPrefix(mt.String(), "audio/") {
		return "", utils.E(utils.CodeInvalidArgument, op, "recording must be audio or video, got "+mt.String(), nil)
	}

	name := storage.RecordingObjectName(interviewID, now, mt.Extension())
	ref, err := s.deps.Uploader.Upload(ctx, name, mt.String(), bytes.NewReader(data))
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to store recording", err)
	}
	return ref, nil
}

func (s *interviewService) RecordingURL(ctx context.Context, id, userID string) (string, error) {
	const op = "InterviewService.RecordingURL"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return "", err
	}
	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return "", err
	}
	if sess.MediaRef == nil || *sess.MediaRef == "" {
		return "", utils.E(utils.CodeNotFound, op, "interview has no recording", nil)
	}
	if s.deps.Signer == nil {
		return "", utils.E(utils.CodeUnavailable, op, "recording storage is not configured", nil)
	}

	url, err := s.deps.Signer.SignedGetURL(ctx, *sess.MediaRef, s.deps.SignedTTL)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to sign recording url", err)
	}
	return url, nil
}
