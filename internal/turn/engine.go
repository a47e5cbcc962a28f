// Package turn decides how an interview advances after each candidate
// utterance.
package turn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/providers/llm"
	"github.com/yoockh/intervue/internal/utils"
)

// Source says where the assistant side of a turn came from.
type Source string

const (
	SourceNone      Source = "none"
	SourceQuestions Source = "questions"
	SourceModel     Source = "model"
	SourceFallback  Source = "fallback"
)

var errNoModel = errors.New("no model configured")

type Config struct {
	LLMTimeout       time.Duration
	WindowSize       int
	ShortAnswerRunes int
}

func (c Config) withDefaults() Config {
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 30 * time.Second
	}
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.ShortAnswerRunes <= 0 {
		c.ShortAnswerRunes = 30
	}
	return c
}

// Reply is what the caller of a turn sees.
type Reply struct {
	NextQuestion *string `json:"nextQuestion"`
	FollowUp     *string `json:"followUp"`
	Done         bool    `json:"done"`
}

// Outcome is the full result of applying one answer: the reply plus the new
// session state to persist. Changed is false only for the start sentinel.
type Outcome struct {
	Reply Reply

	Context []models.Message
	Cursor  int
	Status  models.Status
	Changed bool

	Kind   Kind
	Action Action
	Source Source
}

// Patch converts the outcome into a single atomic session update.
func (o Outcome) Patch(now time.Time) models.InterviewPatch {
	cursor, status := o.Cursor, o.Status
	return models.InterviewPatch{
		Context:   o.Context,
		Cursor:    &cursor,
		Status:    &status,
		UpdatedAt: now,
	}
}

type Engine struct {
	llm llm.Completer
	cfg Config
	log *logrus.Logger
}

func NewEngine(complete llm.Completer, cfg Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{llm: complete, cfg: cfg.withDefaults(), log: log}
}

// Apply computes the next state of s for one answer without mutating s.
// Model failures are absorbed; the only error is a session that no longer
// accepts turns.
func (e *Engine) Apply(ctx context.Context, s *models.InterviewSession, a Answer) (Outcome, error) {
	const op = "TurnEngine.Apply"

	if s.Status != models.StatusInProgress {
		return Outcome{}, utils.E(utils.CodeInvalidState, op, "interview is not in progress", nil)
	}

	kind := Classify(a)
	if kind == KindStart {
		out := Outcome{
			Context: s.Context,
			Cursor:  s.Cursor,
			Status:  s.Status,
			Kind:    kind,
			Source:  SourceNone,
		}
		if q := s.CurrentQuestion(); q != "" {
			out.Reply.NextQuestion = &q
		}
		return out, nil
	}

	st := &state{
		session: s,
		context: append(make([]models.Message, 0, len(s.Context)+2), s.Context...),
		cursor:  s.Cursor,
		status:  s.Status,
	}
	st.push(models.RoleUser, a.Text)

	out := Outcome{Kind: kind}
	switch kind {
	case KindSkip:
		out.Action = ActionProceed
		out.Reply, out.Source = e.advance(ctx, st)
	case KindClarification:
		out.Reply, out.Source = e.clarify(ctx, st, a.Text)
	default:
		d, src := e.decide(ctx, st, a.Text)
		out.Action = d.Action
		switch d.Action {
		case ActionAsk:
			st.push(models.RoleAssistant, d.Text)
			out.Reply = Reply{FollowUp: strPtr(d.Text)}
			out.Source = src
		case ActionEnd:
			st.status = models.StatusQuestionsCompleted
			out.Reply = Reply{Done: true}
			out.Source = src
		default:
			out.Reply, out.Source = e.advance(ctx, st)
		}
	}

	out.Context = st.context
	out.Cursor = st.cursor
	out.Status = st.status
	out.Changed = true
	return out, nil
}

type state struct {
	session *models.InterviewSession
	context []models.Message
	cursor  int
	status  models.Status
}

func (st *state) push(role models.Role, content string) {
	st.context = append(st.context, models.Message{Role: role, Content: content})
}

// advance moves to the next pre-generated question, or completes the
// question set. Sessions without questions continue as a free-form chat.
func (e *Engine) advance(ctx context.Context, st *state) (Reply, Source) {
	questions := st.session.Questions
	if len(questions) == 0 {
		return e.chat(ctx, st)
	}

	next := st.cursor + 1
	if next < len(questions) {
		st.cursor = next
		st.push(models.RoleAssistant, questions[next])
		return Reply{NextQuestion: strPtr(questions[next])}, SourceQuestions
	}

	st.cursor = len(questions) - 1
	st.status = models.StatusQuestionsCompleted
	return Reply{Done: true}, SourceQuestions
}

func (e *Engine) chat(ctx context.Context, st *state) (Reply, Source) {
	reply, err := e.complete(ctx, st.context)
	if err != nil || reply == "" {
		e.log.WithError(err).WithField("interview_id", st.session.ID.Hex()).Warn("free-form turn fell back to canned question")
		st.push(models.RoleAssistant, GenericNextPrompt)
		return Reply{NextQuestion: strPtr(GenericNextPrompt)}, SourceFallback
	}

	st.push(models.RoleAssistant, reply)
	done := IsCompletion(reply)
	if done {
		st.status = models.StatusQuestionsCompleted
	}
	return Reply{NextQuestion: strPtr(reply), Done: done}, SourceModel
}

func (e *Engine) clarify(ctx context.Context, st *state, utterance string) (Reply, Source) {
	question := st.session.CurrentQuestion()
	reply, err := e.complete(ctx, clarificationMessages(st.session.SystemPrompt(), question, utterance))

	src := SourceModel
	if err != nil || reply == "" {
		e.log.WithError(err).WithField("interview_id", st.session.ID.Hex()).Warn("clarification fell back to canned text")
		src = SourceFallback
		reply = GenericClarify
		if question != "" {
			reply = RephrasePrefix + question
		}
	}

	st.push(models.RoleAssistant, reply)
	return Reply{FollowUp: strPtr(reply)}, src
}

func (e *Engine) decide(ctx context.Context, st *state, answer string) (Decision, Source) {
	msgs := decisionMessages(st.session.SystemPrompt(), Window(st.context, e.cfg.WindowSize))

	reply, err := e.complete(ctx, msgs)
	if err == nil {
		if d, ok := ParseDecision(reply); ok {
			return d, SourceModel
		}
	}

	e.log.WithError(err).WithFields(logrus.Fields{
		"interview_id": st.session.ID.Hex(),
		"reply_len":    len(reply),
	}).Warn("no usable turn decision, using heuristic")
	return FallbackDecision(answer, e.cfg.ShortAnswerRunes), SourceFallback
}

// complete runs one bounded model call.
func (e *Engine) complete(ctx context.Context, msgs []models.Message) (string, error) {
	if e.llm == nil {
		return "", errNoModel
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()
	reply, err := e.llm.Complete(callCtx, msgs)
	return strings.TrimSpace(reply), err
}

func strPtr(s string) *string { return &s }
