package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/analysis"
	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/utils"
)

type memQueue struct {
	ids []string
	err error
}

func (q *memQueue) Enqueue(_ context.Context, id string) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func answered(owner string) models.InterviewSession {
	s := inProgress(owner, "Q1")
	s.Context = append(s.Context, models.Message{Role: models.RoleUser, Content: "my answer"})
	return s
}

func TestRunAnalysisStoresResult(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(answered("u1"))
	pub := &recordingPublisher{}
	reply := "Here you go:\n```json\n{\"scores\":{\"communication\":4,\"technical\":3.6,\"structure\":\"n/a\"},\"summary\":\"Solid\",\"improvements\":[\"Be concise\"],\"strengths\":[\"Clear\"]}\n```"
	svc := NewAnalysisService(AnalysisServiceDeps{Repo: repo, LLM: &scriptModel{replies: []string{reply}}, Events: pub})

	a, err := svc.Run(context.Background(), id.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Solid", a.Summary)
	n, _ := a.Scores.Technical.Int()
	assert.Equal(t, 4, n)
	assert.Equal(t, "N/A", a.Scores.Structure.Text())
	assert.True(t, a.Scores.Nonverbal.IsNull())

	stored := repo.get(id)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, *a, *stored.Analysis)
	assert.Equal(t, reply, *stored.AnalysisRaw)
	require.NotNil(t, stored.AnalysisAt)
	assert.Equal(t, []events.Type{events.TypeAnalysisReady}, pub.types())

	raw, err := svc.Raw(context.Background(), id.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, reply, *raw.AnalysisRaw)
}

func TestRunAnalysisModelDownStillProducesFallback(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(answered("u1"))
	svc := NewAnalysisService(AnalysisServiceDeps{Repo: repo, LLM: &scriptModel{}})

	a, err := svc.Run(context.Background(), id.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{analysis.FallbackImprovement}, a.Improvements)
	assert.Equal(t, []string{}, a.Strengths)
	assert.Equal(t, "", *repo.get(id).AnalysisRaw)
}

func TestRunAnalysisRequiresMaterial(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(inProgress("u1", "Q1"))
	svc := NewAnalysisService(AnalysisServiceDeps{Repo: repo, LLM: &scriptModel{}})

	_, err := svc.Run(context.Background(), id.Hex(), "u1")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	withTranscript := inProgress("u1", "Q1")
	tr := "Interviewer: hi\nCandidate: hello"
	withTranscript.Transcript = &tr
	tid := repo.put(withTranscript)
	_, err = svc.Run(context.Background(), tid.Hex(), "u1")
	assert.NoError(t, err)

	_, err = svc.Run(context.Background(), "0123456789abcdef01234567", "u1")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestRunAnalysisAfterCompletion(t *testing.T) {
	repo := newMemInterviews()
	s := answered("u1")
	s.Status = models.StatusCompleted
	id := repo.put(s)
	svc := NewAnalysisService(AnalysisServiceDeps{Repo: repo, LLM: &scriptModel{replies: []string{`{"summary":"a"}`, `{"summary":"b"}`}}})

	a, err := svc.Run(context.Background(), id.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Summary)
	first := *repo.get(id).AnalysisAt

	b, err := svc.RunJob(context.Background(), id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "b", b.Summary)
	assert.False(t, repo.get(id).AnalysisAt.Before(first))
	assert.Equal(t, models.StatusCompleted, repo.get(id).Status)
}

func TestEnqueueAnalysis(t *testing.T) {
	repo := newMemInterviews()
	id := repo.put(answered("u1"))
	q := &memQueue{}
	svc := NewAnalysisService(AnalysisServiceDeps{Repo: repo, Queue: q})

	require.NoError(t, svc.Enqueue(context.Background(), id.Hex(), "u1"))
	assert.Equal(t, []string{id.Hex()}, q.ids)

	err := svc.Enqueue(context.Background(), id.Hex(), "u2")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	q.err = errors.New("redis down")
	err = svc.Enqueue(context.Background(), id.Hex(), "u1")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	noQueue := NewAnalysisService(AnalysisServiceDeps{Repo: repo})
	err = noQueue.Enqueue(context.Background(), id.Hex(), "u1")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
