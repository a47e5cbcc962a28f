package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

func TestTurnSubmitProceedPersistsAndAudits(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1", "Q2"))

	logs := &mockTurnLogs{}
	logs.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.TurnLog) bool {
		return r.InterviewID == id.Hex() && r.Kind == "substantive" && r.Action == "proceed" && r.Reply == "Q2"
	})).Return(nil).Once()

	pub := &recordingPublisher{}
	svc := newTurnSvc(repo, &scriptModel{replies: []string{`{"action":"proceed"}`}}, logs, pub)

	reply, err := svc.Submit(context.Background(), id.Hex(), "u1", turn.TextAnswer("I built the payment service in Go and scaled it."))
	require.NoError(t, err)
	require.NotNil(t, reply.NextQuestion)
	assert.Equal(t, "Q2", *reply.NextQuestion)

	got := repo.get(id)
	assert.Equal(t, 1, got.Cursor)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Q2"}, got.Context[len(got.Context)-1])

	logs.AssertExpectations(t)
	assert.Equal(t, []events.Type{events.TypeTurn}, pub.types())
}

func TestTurnSubmitStartDoesNotPersist(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1"))
	before := repo.get(id)

	logs := &mockTurnLogs{}
	svc := newTurnSvc(repo, &scriptModel{}, logs, nil)

	reply, err := svc.Submit(context.Background(), id.Hex(), "u1", turn.Start())
	require.NoError(t, err)
	require.NotNil(t, reply.NextQuestion)
	assert.Equal(t, "Q1", *reply.NextQuestion)
	assert.Equal(t, before, repo.get(id))
	logs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestTurnSubmitAuditFailureIsSwallowed(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1", "Q2"))

	logs := &mockTurnLogs{}
	logs.On("Insert", mock.Anything, mock.Anything).Return(errors.New("pg down"))

	svc := newTurnSvc(repo, &scriptModel{}, logs, nil)
	reply, err := svc.Submit(context.Background(), id.Hex(), "u1", turn.Skip())
	require.NoError(t, err)
	assert.Equal(t, "Q2", *reply.NextQuestion)
	assert.Equal(t, 1, repo.get(id).Cursor)
}

func TestTurnSubmitErrors(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1"))
	done := inProgress("u1", "Q1")
	done.Status = models.StatusQuestionsCompleted
	doneID := repo.put(done)

	svc := newTurnSvc(repo, &scriptModel{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "nope", "u1", turn.Skip())
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Submit(ctx, id.Hex(), "u1", turn.TextAnswer("   "))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Submit(ctx, "0123456789abcdef01234567", "u1", turn.Skip())
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.Submit(ctx, id.Hex(), "someone-else", turn.Skip())
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = svc.Submit(ctx, doneID.Hex(), "u1", turn.Skip())
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
}

func TestTurnSubmitPersistFailure(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1", "Q2"))
	repo.failUpd = errors.New("mongo down")

	svc := newTurnSvc(repo, &scriptModel{}, nil, nil)
	_, err := svc.Submit(context.Background(), id.Hex(), "u1", turn.Skip())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
	assert.Contains(t, err.Error(), "failed to process turn")
}

func TestTurnSubmitSerializesConcurrentSkips(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1", "Q2", "Q3", "Q4"))
	svc := NewTurnService(TurnServiceDeps{
		Repo:   repo,
		Engine: turn.NewEngine(nil, turn.Config{}, nil),
		Locker: testLockerWithWait(),
		Logger: nil,
	})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), id.Hex(), "u1", turn.Skip())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := repo.get(id)
	assert.Equal(t, 3, got.Cursor)
	// system, Q1, then 3 x (skip, next question)
	assert.Len(t, got.Context, 8)
}

type stubSTT struct {
	text string
	err  error
}

func (s stubSTT) Transcribe(context.Context, []byte, string) (string, float64, error) {
	return s.text, 0.9, s.err
}
func (stubSTT) Close() error { return nil }

func TestTurnSubmitAudio(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1", "Q2"))
	pub := &recordingPublisher{}

	svc := NewTurnService(TurnServiceDeps{
		Repo:   repo,
		Engine: turn.NewEngine(&scriptModel{replies: []string{`{"action":"proceed"}`}}, turn.Config{}, nil),
		Locker: testLocker(),
		STT:    stubSTT{text: " I led the migration to Kubernetes last year "},
		Events: pub,
	})

	reply, text, err := svc.SubmitAudio(context.Background(), id.Hex(), "u1", []byte("RIFF"), "")
	require.NoError(t, err)
	assert.Equal(t, "I led the migration to Kubernetes last year", text)
	assert.Equal(t, "Q2", *reply.NextQuestion)
	assert.Equal(t, []events.Type{events.TypeTranscript, events.TypeTurn}, pub.types())
}

func TestTurnSubmitAudioFailureRecordsNothing(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1"))
	before := repo.get(id)

	svc := NewTurnService(TurnServiceDeps{
		Repo:   repo,
		Engine: turn.NewEngine(nil, turn.Config{}, nil),
		Locker: testLocker(),
		STT:    stubSTT{err: errors.New("speech api down")},
	})
	_, _, err := svc.SubmitAudio(context.Background(), id.Hex(), "u1", []byte("RIFF"), "en-US")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.Equal(t, before, repo.get(id))

	noSTT := NewTurnService(TurnServiceDeps{Repo: repo, Engine: turn.NewEngine(nil, turn.Config{}, nil), Locker: testLocker()})
	_, _, err = noSTT.SubmitAudio(context.Background(), id.Hex(), "u1", []byte("RIFF"), "en-US")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
