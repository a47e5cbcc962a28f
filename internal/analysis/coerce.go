package analysis

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/yoockh/intervue/internal/models"
)

// Normalize coerces any decoded JSON object into the canonical analysis
// shape: five scores, a summary string and two string lists.
func Normalize(obj map[string]any) models.Analysis {
	out := models.Analysis{
		Improvements: []string{},
		Strengths:    []string{},
	}

	scoreSrc, _ := lookup(obj, "scores").(map[string]any)
	if scoreSrc == nil {
		scoreSrc = obj
	}
	out.Scores = scoresFrom(bucketScores(scoreSrc))

	out.Summary = coerceText(lookup(obj, "summary"))
	out.Improvements = append(out.Improvements, coerceList(lookup(obj, "improvements"))...)
	out.Strengths = append(out.Strengths, coerceList(lookup(obj, "strengths"))...)
	return out
}

var canonicalScoreKeys = []string{"communication", "technical", "structure", "confidence", "nonverbal"}

// bucketScores prefers the canonical key for each category. Other labels
// fill the remaining categories in sorted key order, so two labels landing
// in one bucket always resolve the same way.
func bucketScores(src map[string]any) map[string]models.Score {
	buckets := map[string]models.Score{}
	for _, key := range canonicalScoreKeys {
		if v, ok := lookupOK(src, key); ok {
			buckets[key] = coerceScore(v)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(src)) {
		b := bucketFor(k)
		if b == "" {
			continue
		}
		if _, seen := buckets[b]; !seen {
			buckets[b] = coerceScore(src[k])
		}
	}
	return buckets
}

func scoresFrom(buckets map[string]models.Score) models.Scores {
	return models.Scores{
		Communication: buckets["communication"],
		Technical:     buckets["technical"],
		Structure:     buckets["structure"],
		Confidence:    buckets["confidence"],
		Nonverbal:     buckets["nonverbal"],
	}
}

// lookup finds key case-insensitively.
func lookup(obj map[string]any, key string) any {
	v, _ := lookupOK(obj, key)
	return v
}

func lookupOK(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return obj[k], true
		}
	}
	return nil, false
}

func coerceScore(v any) models.Score {
	switch t := v.(type) {
	case float64:
		return models.IntScore(int(math.Round(t)))
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return models.IntScore(n)
		}
		if strings.EqualFold(s, "n/a") {
			return models.TextScore("N/A")
		}
		if s != "" {
			return models.TextScore(s)
		}
	}
	return models.NullScore()
}

func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func coerceList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := coerceText(t); s != "" {
			return []string{s}
		}
		return nil
	}
}
