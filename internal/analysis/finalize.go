// Package analysis turns free-form model feedback on an interview into the
// canonical analysis shape.
package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/llmjson"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/providers/llm"
)

// Stage names the strategy that produced a Result.
type Stage string

const (
	StageDirect        Stage = "direct"
	StageRepair        Stage = "repair"
	StageGreedy        Stage = "greedy"
	StageReformat      Stage = "reformat"
	StageReformatTerse Stage = "reformat_terse"
	StageFallback      Stage = "fallback"
)

// FallbackImprovement marks an analysis that could not be parsed.
const FallbackImprovement = "Could not parse structured analysis, inspect raw output."

const (
	summaryLimit      = 1000
	greedySummaryRows = 3
)

// Result is a guaranteed well-formed analysis plus the model text it came from.
type Result struct {
	Analysis models.Analysis
	Raw      string
	Stage    Stage
}

type Finalizer struct {
	llm     llm.Completer
	timeout time.Duration
	log     *logrus.Logger
}

// NewFinalizer builds a Finalizer. complete may be nil, in which case the
// reformatting stages are skipped.
func NewFinalizer(complete llm.Completer, timeout time.Duration, log *logrus.Logger) *Finalizer {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Finalizer{llm: complete, timeout: timeout, log: log}
}

// Finalize never fails: each stage either yields a result or hands over to
// the next, ending in a fixed fallback.
func (f *Finalizer) Finalize(ctx context.Context, llmText string) Result {
	res, _ := llmjson.First(
		func() (Result, bool) {
			obj, ok := llmjson.ExtractObject(llmText)
			return f.wrap(obj, llmText, StageDirect, ok)
		},
		func() (Result, bool) {
			obj, ok := llmjson.RepairFromBrace(llmText)
			return f.wrap(obj, llmText, StageRepair, ok)
		},
		func() (Result, bool) { return greedy(llmText) },
		func() (Result, bool) { return f.reformat(ctx, llmText, StageReformat) },
		func() (Result, bool) { return f.reformat(ctx, llmText, StageReformatTerse) },
		func() (Result, bool) { return fallback(llmText), true },
	)
	return res
}

func (f *Finalizer) wrap(obj map[string]any, raw string, stage Stage, ok bool) (Result, bool) {
	if !ok {
		return Result{}, false
	}
	return Result{Analysis: Normalize(obj), Raw: raw, Stage: stage}, true
}

func greedy(llmText string) (Result, bool) {
	fields := Scrape(llmText)
	if fields.Empty() {
		return Result{}, false
	}
	lines := strings.Split(llmText, "\n")
	if len(lines) > greedySummaryRows {
		lines = lines[:greedySummaryRows]
	}
	return Result{
		Analysis: models.Analysis{
			Scores:       scoresFrom(fields.Scores),
			Summary:      truncateRunes(strings.Join(lines, " "), summaryLimit),
			Improvements: fields.Improvements,
			Strengths:    fields.Strengths,
		},
		Raw:   llmText,
		Stage: StageGreedy,
	}, true
}

func (f *Finalizer) reformat(ctx context.Context, llmText string, stage Stage) (Result, bool) {
	if f.llm == nil {
		return Result{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	reply, err := f.llm.Complete(callCtx, reformatMessages(llmText, stage == StageReformatTerse))
	if err != nil {
		f.log.WithError(err).WithField("stage", stage).Warn("analysis reformat call failed")
		return Result{}, false
	}

	obj, ok := llmjson.First(
		func() (map[string]any, bool) { return llmjson.ExtractObject(reply) },
		func() (map[string]any, bool) { return llmjson.RepairObject(reply) },
	)
	return f.wrap(obj, reply, stage, ok)
}

func fallback(llmText string) Result {
	return Result{
		Analysis: models.Analysis{
			Summary:      truncateRunes(llmText, summaryLimit),
			Improvements: []string{FallbackImprovement},
			Strengths:    []string{},
		},
		Raw:   llmText,
		Stage: StageFallback,
	}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
