package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/metrics"
	"github.com/yoockh/intervue/internal/models"
)

// InstrumentedProvider records latency and outcome of every completion.
type InstrumentedProvider struct {
	inner Provider
	log   *logrus.Logger
}

func WithInstrumentation(p Provider, log *logrus.Logger) *InstrumentedProvider {
	return &InstrumentedProvider{inner: p, log: log}
}

func (i *InstrumentedProvider) Name() string { return i.inner.Name() }

func (i *InstrumentedProvider) Close() error { return i.inner.Close() }

func (i *InstrumentedProvider) Complete(ctx context.Context, messages []models.Message) (string, error) {
	start := time.Now()
	reply, err := i.inner.Complete(ctx, messages)
	elapsed := time.Since(start)

	name := i.inner.Name()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(name, outcome).Inc()
	metrics.LLMRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	entry := i.log.WithFields(logrus.Fields{
		"provider":   name,
		"messages":   len(messages),
		"latency_ms": elapsed.Milliseconds(),
		"reply_len":  len(reply),
	})
	if err != nil {
		entry.WithError(err).Warn("llm completion failed")
	} else {
		entry.Debug("llm completion")
	}
	return reply, err
}
