package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/metrics"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/utils"
)

const (
	DefaultAnalysisStream = "analysis:stream"
	DefaultAnalysisGroup  = "analysis-workers"

	jobTypeAnalysis = "analysis"
)

// AnalysisRunner is the slice of the analysis service the pool needs.
type AnalysisRunner interface {
	RunJob(ctx context.Context, id string) (*models.Analysis, error)
}

// AnalysisQueue appends interview ids to the analysis stream.
type AnalysisQueue struct {
	Redis  redis.UniversalClient
	Stream string
}

func NewAnalysisQueue(rdb redis.UniversalClient, stream string) *AnalysisQueue {
	if stream == "" {
		stream = DefaultAnalysisStream
	}
	return &AnalysisQueue{Redis: rdb, Stream: stream}
}

func (q *AnalysisQueue) Enqueue(ctx context.Context, interviewID string) error {
	err := q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{
			"interview_id": interviewID,
			"enqueued_at":  time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err == nil {
		metrics.JobsEnqueuedTotal.WithLabelValues(jobTypeAnalysis).Inc()
	}
	return err
}

// AnalysisWorkerPool consumes the analysis stream through a consumer group.
type AnalysisWorkerPool struct {
	Redis      redis.UniversalClient
	Runner     AnalysisRunner
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	Block          time.Duration
	JobTimeout     time.Duration
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Runner == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Runner must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultAnalysisStream
	}
	if p.Group == "" {
		p.Group = DefaultAnalysisGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Block <= 0 {
		p.Block = 5 * time.Second
	}
	if p.JobTimeout <= 0 {
		p.JobTimeout = 3 * time.Minute
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    p.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// handleMsg runs one job. Invalid ids and missing interviews are dropped;
// other failures are counted and logged, the message is still acked.
func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	id, _ := msg.Values["interview_id"].(string)
	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":     msg.ID,
		"interview_id": id,
	})
	if id == "" {
		log.Warn("analysis job without interview_id")
		metrics.JobsFailedTotal.WithLabelValues(jobTypeAnalysis).Inc()
		return
	}

	jctx, cancel := context.WithTimeout(ctx, p.JobTimeout)
	defer cancel()

	start := time.Now()
	if _, err := p.Runner.RunJob(jctx, id); err != nil {
		metrics.JobsFailedTotal.WithLabelValues(jobTypeAnalysis).Inc()
		entry := log.WithError(err)
		if utils.IsCode(err, utils.CodeNotFound) || utils.IsCode(err, utils.CodeInvalidArgument) {
			entry.Warn("analysis job dropped")
			return
		}
		entry.Error("analysis job failed")
		return
	}
	metrics.JobsCompletedTotal.WithLabelValues(jobTypeAnalysis).Inc()
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("analysis job done")
}
