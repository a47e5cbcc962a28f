package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/models"
)

func TestScrape_EmptyInputReturnsEmptyContainers(t *testing.T) {
	f := Scrape("")
	require.NotNil(t, f.Scores)
	require.NotNil(t, f.Improvements)
	require.NotNil(t, f.Strengths)
	assert.True(t, f.Empty())
}

func TestScrape_ScoresAreBucketedByFuzzyKey(t *testing.T) {
	text := `Communication (clarity): 4
Technical Accuracy: 3
Problem Solving / Depth: 2
Structure: 5
Confidence / Presence: 4
Nonverbal: N/A`

	f := Scrape(text)
	assert.Equal(t, models.IntScore(4), f.Scores["communication"])
	assert.Equal(t, models.IntScore(3), f.Scores["technical"])
	assert.Equal(t, models.IntScore(2), f.Scores["problem"])
	assert.Equal(t, models.IntScore(5), f.Scores["structure"])
	assert.Equal(t, models.IntScore(4), f.Scores["confidence"])
	assert.Equal(t, models.TextScore("N/A"), f.Scores["nonverbal"])
}

func TestScrape_ListFromJSONArray(t *testing.T) {
	text := `garbage "improvements": ["Use the STAR method", "Quantify impact, when possible"] more garbage`

	f := Scrape(text)
	assert.Equal(t, []string{"Use the STAR method", "Quantify impact, when possible"}, f.Improvements)
	assert.Empty(t, f.Strengths)
}

func TestScrape_ListFromHeadingBlock(t *testing.T) {
	text := `Overall the candidate did fine.

Strengths:
- Clear explanations
- Good pacing
1. Honest about gaps

Improvements:
"Practice system design"
Talk through trade-offs out loud.`

	f := Scrape(text)
	assert.Equal(t, []string{"Clear explanations", "Good pacing", "Honest about gaps"}, f.Strengths[:3])
	assert.Equal(t, []string{"Practice system design", "Talk through trade-offs out loud."}, f.Improvements)
}

func TestScrape_KeyInProseIsNotAHeading(t *testing.T) {
	text := "The candidate needs some improvements in depth.\n\nImprovements:\n- Practice STAR"

	f := Scrape(text)
	assert.Equal(t, []string{"Practice STAR"}, f.Improvements)
}

func TestScrape_MarkdownHeadingBlock(t *testing.T) {
	text := "## Strengths\n- Calm delivery\n\n**Improvements:**\n1. Shorter answers"

	f := Scrape(text)
	assert.Equal(t, "Calm delivery", f.Strengths[0])
	assert.Equal(t, []string{"Shorter answers"}, f.Improvements)
}

func TestScrape_NotApplicableIsCanonicalised(t *testing.T) {
	f := Scrape("Nonverbal: n/a\nConfidence: N/a")
	assert.Equal(t, models.TextScore("N/A"), f.Scores["nonverbal"])
	assert.Equal(t, models.TextScore("N/A"), f.Scores["confidence"])
}

func TestScrape_UnknownKeysIgnored(t *testing.T) {
	f := Scrape("Time: 10\nRating: 4")
	assert.Empty(t, f.Scores)
}

func TestSplitOutsideQuotes(t *testing.T) {
	parts := splitOutsideQuotes(`"a, b", "c"`)
	assert.Equal(t, []string{`"a, b"`, ` "c"`}, parts)
}
