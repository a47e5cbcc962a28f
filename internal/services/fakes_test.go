package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/locks"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

// memInterviews is an in-memory InterviewRepository.
type memInterviews struct {
	mu      sync.Mutex
	docs    map[primitive.ObjectID]models.InterviewSession
	failUpd error
}

func newMemInterviews() *memInterviews {
	return &memInterviews{docs: map[primitive.ObjectID]models.InterviewSession{}}
}

func (m *memInterviews) Create(_ context.Context, s *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.docs[s.ID] = clone(*s)
	return nil
}

func (m *memInterviews) GetByID(_ context.Context, id primitive.ObjectID) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := clone(d)
	return &c, nil
}

func (m *memInterviews) ListByOwner(_ context.Context, ownerID string, limit int64) ([]models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InterviewSession
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInterviews) Update(_ context.Context, id primitive.ObjectID, p models.InterviewPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpd != nil {
		return m.failUpd
	}
	d, ok := m.docs[id]
	if !ok {
		return utils.ErrNotFound
	}
	if p.Context != nil {
		d.Context = append([]models.Message(nil), p.Context...)
	}
	if p.Cursor != nil {
		d.Cursor = *p.Cursor
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Transcript != nil {
		d.Transcript = p.Transcript
	}
	if p.MediaRef != nil {
		d.MediaRef = p.MediaRef
	}
	if p.CompletedAt != nil {
		d.CompletedAt = p.CompletedAt
	}
	if p.Analysis != nil {
		d.Analysis = p.Analysis
	}
	if p.AnalysisRaw != nil {
		d.AnalysisRaw = p.AnalysisRaw
	}
	if p.AnalysisAt != nil {
		d.AnalysisAt = p.AnalysisAt
	}
	d.UpdatedAt = p.UpdatedAt
	m.docs[id] = d
	return nil
}

func (m *memInterviews) put(s models.InterviewSession) primitive.ObjectID {
	_ = m.Create(context.Background(), &s)
	return s.ID
}

func (m *memInterviews) get(id primitive.ObjectID) models.InterviewSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.docs[id])
}

func clone(s models.InterviewSession) models.InterviewSession {
	s.Questions = append([]string(nil), s.Questions...)
	s.Context = append([]models.Message(nil), s.Context...)
	return s
}

// scriptModel replays replies in order, then fails.
type scriptModel struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (f *scriptModel) Complete(context.Context, []models.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.replies) == 0 {
		return "", errors.New("model unavailable")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type mockTurnLogs struct{ mock.Mock }

func (m *mockTurnLogs) Insert(ctx context.Context, row *models.TurnLog) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockTurnLogs) ListByInterview(ctx context.Context, id string, limit int) ([]models.TurnLog, error) {
	args := m.Called(ctx, id, limit)
	rows, _ := args.Get(0).([]models.TurnLog)
	return rows, args.Error(1)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func testLocker() locks.Locker {
	return locks.NewLocalLocker(locks.Options{Wait: 100 * time.Millisecond, Retry: 5 * time.Millisecond})
}

func testLockerWithWait() locks.Locker {
	return locks.NewLocalLocker(locks.Options{Wait: 5 * time.Second, Retry: time.Millisecond})
}

func newTurnSvc(repo *memInterviews, model *scriptModel, logs *mockTurnLogs, pub events.Publisher) TurnService {
	d := TurnServiceDeps{
		Repo:   repo,
		Engine: turn.NewEngine(model, turn.Config{LLMTimeout: time.Second}, nil),
		Locker: testLocker(),
		Events: pub,
		Logger: logger.Nop(),
	}
	if logs != nil {
		d.TurnLogs = logs
	}
	return NewTurnService(d)
}

func inProgress(owner string, questions ...string) models.InterviewSession {
	s := models.InterviewSession{
		OwnerID:   owner,
		Questions: questions,
		Status:    models.StatusInProgress,
		Context:   []models.Message{{Role: models.RoleSystem, Content: "sys"}},
		CreatedAt: time.Now().UTC(),
	}
	if len(questions) > 0 {
		s.Context = append(s.Context, models.Message{Role: models.RoleAssistant, Content: questions[0]})
	}
	return s
}
