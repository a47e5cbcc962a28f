package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

type Message struct {
	Role    Role   `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`
}

type Status string

const (
	StatusInProgress         Status = "in_progress"
	StatusQuestionsCompleted Status = "questions_completed"
	StatusCompleted          Status = "completed"
)

func (s Status) rank() int {
	switch s {
	case StatusInProgress:
		return 0
	case StatusQuestionsCompleted:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether moving from s to next keeps status monotonic.
// Completing an already completed interview is allowed (re-stamp).
func (s Status) CanTransition(next Status) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	if to == from {
		return next == StatusCompleted
	}
	return to > from
}

type RoleMeta struct {
	Company      string `bson:"company" json:"company"`
	Position     string `bson:"position" json:"position"`
	Description  string `bson:"description" json:"description"`
	Requirements string `bson:"requirements,omitempty" json:"requirements,omitempty"`
	ResumeText   string `bson:"resume_text,omitempty" json:"-"`
}

type Settings struct {
	NumQuestions int    `bson:"num_questions" json:"numQuestions"`
	Difficulty   string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Mode         string `bson:"mode,omitempty" json:"mode,omitempty"`
}

const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 20
	DefaultDifficulty   = "medium"
)

// Normalized clamps the question count and fills in the default difficulty.
func (s Settings) Normalized() Settings {
	switch {
	case s.NumQuestions <= 0:
		s.NumQuestions = DefaultNumQuestions
	case s.NumQuestions > MaxNumQuestions:
		s.NumQuestions = MaxNumQuestions
	}
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
	return s
}

type InterviewSession struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID string             `bson:"owner_id" json:"ownerId"`

	RoleMeta RoleMeta `bson:"role_meta" json:"roleMeta"`
	Settings Settings `bson:"settings" json:"settings"`

	Questions []string  `bson:"questions" json:"questions"`
	Cursor    int       `bson:"cursor" json:"cursor"`
	Context   []Message `bson:"context" json:"context"`
	Status    Status    `bson:"status" json:"status"`

	Transcript *string `bson:"transcript,omitempty" json:"transcript,omitempty"`
	MediaRef   *string `bson:"media_ref,omitempty" json:"mediaRef,omitempty"`

	Analysis    *Analysis `bson:"analysis,omitempty" json:"analysis,omitempty"`
	AnalysisRaw *string   `bson:"analysis_raw,omitempty" json:"-"`

	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	AnalysisAt  *time.Time `bson:"analysis_at,omitempty" json:"analysisAt,omitempty"`
}

// SystemPrompt returns the fixed system prompt stored as the first context entry.
func (s *InterviewSession) SystemPrompt() string {
	if len(s.Context) > 0 && s.Context[0].Role == RoleSystem {
		return s.Context[0].Content
	}
	return ""
}

// CurrentQuestion returns the question at the cursor, or the latest assistant
// message when the interview runs without pre-generated questions.
func (s *InterviewSession) CurrentQuestion() string {
	if s.Cursor >= 0 && s.Cursor < len(s.Questions) {
		return s.Questions[s.Cursor]
	}
	for i := len(s.Context) - 1; i >= 0; i-- {
		if s.Context[i].Role == RoleAssistant {
			return s.Context[i].Content
		}
	}
	return ""
}

// InterviewPatch is a partial update applied atomically to one interview.
// Nil fields are left untouched; UpdatedAt is always written.
type InterviewPatch struct {
	Context []Message
	Cursor  *int
	Status  *Status

	Transcript  *string
	MediaRef    *string
	CompletedAt *time.Time

	Analysis    *Analysis
	AnalysisRaw *string
	AnalysisAt  *time.Time

	UpdatedAt time.Time
}

type InterviewSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Company   string             `json:"company"`
	Position  string             `json:"position"`
	Status    Status             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (s *InterviewSession) Summary() InterviewSummary {
	return InterviewSummary{
		ID:        s.ID,
		Company:   s.RoleMeta.Company,
		Position:  s.RoleMeta.Position,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
