package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/locks"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/metrics"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/providers/stt"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	pgrepo "github.com/yoockh/intervue/internal/repositories/postgres"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

type TurnService interface {
	Submit(ctx context.Context, id, userID string, a turn.Answer) (turn.Reply, error)
	// SubmitAudio transcribes a spoken answer and submits it as text.
	SubmitAudio(ctx context.Context, id, userID string, audio []byte, language string) (turn.Reply, string, error)
}

type TurnServiceDeps struct {
	Repo     mongorepo.InterviewRepository
	Engine   *turn.Engine
	Locker   locks.Locker
	TurnLogs pgrepo.TurnLogRepo // optional
	STT      stt.Provider       // optional
	Events   events.Publisher
	Logger   *logrus.Logger
}

type turnService struct {
	deps TurnServiceDeps
}

func NewTurnService(d TurnServiceDeps) TurnService {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &turnService{deps: d}
}

func (s *turnService) Submit(ctx context.Context, id, userID string, a turn.Answer) (turn.Reply, error) {
	const op = "TurnService.Submit"

	oid, err := parseInterviewID(op, id)
	if err != nil {
		return turn.Reply{}, err
	}
	if a.Kind == turn.AnswerText && strings.TrimSpace(a.Text) == "" {
		return turn.Reply{}, utils.E(utils.CodeInvalidArgument, op, "answer is required", turn.ErrEmptyAnswer)
	}

	release, err := acquire(ctx, s.deps.Locker, op, oid)
	if err != nil {
		return turn.Reply{}, err
	}
	defer release()

	sess, err := loadOwned(ctx, s.deps.Repo, op, oid, userID)
	if err != nil {
		return turn.Reply{}, err
	}

	out, err := s.deps.Engine.Apply(ctx, sess, a)
	if err != nil {
		return turn.Reply{}, err
	}

	log := s.deps.Logger.WithFields(logrus.Fields{
		"interview_id": id,
		"kind":         string(out.Kind),
		"action":       string(out.Action),
		"source":       string(out.Source),
	})

	if !out.Changed {
		return out.Reply, nil
	}

	now := time.Now().UTC()
	if err := persist(ctx, s.deps.Repo, op, oid, out.Patch(now)); err != nil {
		log.WithError(err).Error("failed to process turn")
		return turn.Reply{}, utils.E(utils.CodeInternal, op, "failed to process turn", err)
	}

	metrics.TurnsTotal.WithLabelValues(string(out.Kind), string(out.Action), string(out.Source)).Inc()
	log.WithFields(logrus.Fields{"cursor": out.Cursor, "status": out.Status}).Info("turn committed")

	s.audit(ctx, sess, userID, a, out, now)

	cursor := out.Cursor
	_ = s.deps.Events.Publish(ctx, events.Event{
		Type:        events.TypeTurn,
		InterviewID: id,
		Status:      string(out.Status),
		Cursor:      &cursor,
		Payload:     out.Reply,
	})
	return out.Reply, nil
}

// audit appends the committed turn to the relational log. Failures are
// logged and swallowed; the session document is the source of truth.
func (s *turnService) audit(ctx context.Context, sess *models.InterviewSession, userID string, a turn.Answer, out turn.Outcome, now time.Time) {
	if s.deps.TurnLogs == nil {
		return
	}

	reply := ""
	switch {
	case out.Reply.FollowUp != nil:
		reply = *out.Reply.FollowUp
	case out.Reply.NextQuestion != nil:
		reply = *out.Reply.NextQuestion
	}

	meta, _ := json.Marshal(map[string]any{
		"done":           out.Reply.Done,
		"prev_cursor":    sess.Cursor,
		"question_count": len(sess.Questions),
	})

	row := &models.TurnLog{
		ID:          uuid.NewString(),
		InterviewID: sess.ID.Hex(),
		UserID:      userID,
		Kind:        string(out.Kind),
		Action:      string(out.Action),
		Source:      string(out.Source),
		Answer:      a.Text,
		Reply:       reply,
		Cursor:      out.Cursor,
		Status:      string(out.Status),
		Metadata:    datatypes.JSON(meta),
		Timestamp:   now,
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.deps.TurnLogs.Insert(wctx, row); err != nil {
		s.deps.Logger.WithError(err).WithField("interview_id", row.InterviewID).Warn("turn log insert failed")
	}
}

func (s *turnService) SubmitAudio(ctx context.Context, id, userID string, audio []byte, language string) (turn.Reply, string, error) {
	const op = "TurnService.SubmitAudio"

	if s.deps.STT == nil {
		return turn.Reply{}, "", utils.E(utils.CodeUnavailable, op, "speech recognition is not configured", nil)
	}
	if len(audio) == 0 {
		return turn.Reply{}, "", utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if language == "" {
		language = "en-US"
	}

	text, conf, err := s.deps.STT.Transcribe(ctx, audio, language)
	if err != nil {
		if errors.Is(err, stt.ErrUnsupportedAudio) {
			return turn.Reply{}, "", utils.E(utils.CodeInvalidArgument, op, "unsupported audio format", err)
		}
		return turn.Reply{}, "", utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return turn.Reply{}, "", utils.E(utils.CodeInvalidArgument, op, "no speech recognized", nil)
	}

	_ = s.deps.Events.Publish(ctx, events.Event{
		Type:        events.TypeTranscript,
		InterviewID: id,
		Payload:     map[string]any{"text": text, "confidence": conf},
	})

	reply, err := s.Submit(ctx, id, userID, turn.TextAnswer(text))
	return reply, text, err
}
