package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yoockh/intervue/internal/models"
)

// Fields is what the greedy scraper could recover from unstructured text.
// Scores is keyed by bucket name (communication, technical, problem,
// structure, confidence, nonverbal). Containers are never nil.
type Fields struct {
	Scores       map[string]models.Score
	Improvements []string
	Strengths    []string
}

func (f Fields) Empty() bool {
	return len(f.Scores) == 0 && len(f.Improvements) == 0 && len(f.Strengths) == 0
}

var (
	scorePairRe  = regexp.MustCompile(`(?i)["']?([A-Za-z0-9 /()\-]+?)["']?\s*:\s*("?(\d+|N/A)?"?)`)
	bulletRe     = regexp.MustCompile(`^[-•*]\s*(.+)$`)
	numberedRe   = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	quotedLineRe = regexp.MustCompile(`^"(.+)"$`)
	listPrefixRe = regexp.MustCompile(`^[\-\d.)\s]+`)
)

const headingWindow = 600

type listPattern struct {
	array   *regexp.Regexp
	heading *regexp.Regexp
}

func newListPattern(key string) listPattern {
	q := regexp.QuoteMeta(key)
	return listPattern{
		array: regexp.MustCompile(`(?is)"` + q + `"\s*:\s*\[(.*?)\]`),
		// The key must open a line and be followed by ":", "-" or a line
		// break. The separator stops at the line break so a leading "- "
		// bullet on the next line stays part of the block.
		heading: regexp.MustCompile(`(?ims)^[ \t#*]*` + q + `\**[ \t]*(?:[:\-]\**[ \t]*\r?\n?|\r?\n)(.{0,` + strconv.Itoa(headingWindow) + `})`),
	}
}

var (
	improvementsPattern = newListPattern("improvements")
	strengthsPattern    = newListPattern("strengths")
)

// Scrape pulls score-like "key: value" pairs and improvement/strength lists
// out of text that no JSON strategy could handle. It never fails; it only
// returns less.
func Scrape(text string) Fields {
	out := Fields{
		Scores:       map[string]models.Score{},
		Improvements: []string{},
		Strengths:    []string{},
	}
	if text == "" {
		return out
	}

	for _, m := range scorePairRe.FindAllStringSubmatch(text, -1) {
		raw := m[3]
		if raw == "" {
			continue
		}
		bucket := bucketFor(strings.TrimSpace(m[1]))
		if bucket == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			out.Scores[bucket] = models.IntScore(n)
		} else {
			// the pattern only admits digits or some casing of n/a
			out.Scores[bucket] = models.TextScore("N/A")
		}
	}

	out.Improvements = append(out.Improvements, improvementsPattern.find(text)...)
	out.Strengths = append(out.Strengths, strengthsPattern.find(text)...)
	return out
}

// bucketFor maps a free-form score label onto a known category.
func bucketFor(key string) string {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "commun"), strings.Contains(k, "clarity"):
		return "communication"
	case strings.Contains(k, "technical"):
		return "technical"
	case strings.Contains(k, "problem"), strings.Contains(k, "solv"):
		return "problem"
	case strings.Contains(k, "structure"), strings.Contains(k, "organ"):
		return "structure"
	case strings.Contains(k, "confidence"), strings.Contains(k, "presence"):
		return "confidence"
	case strings.Contains(k, "nonverb"):
		return "nonverbal"
	default:
		return ""
	}
}

// find prefers a literal JSON array for the key, then falls back to the
// block following a heading-like occurrence of it.
func (p listPattern) find(text string) []string {
	if m := p.array.FindStringSubmatch(text); m != nil && m[1] != "" {
		var items []string
		for _, part := range splitOutsideQuotes(m[1]) {
			if item := strings.Trim(part, "\"' \t\r\n"); item != "" {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			return items
		}
	}

	m := p.heading.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil
	}

	var results []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sub := firstSubmatch(line, bulletRe, numberedRe, quotedLineRe); sub != "" {
			results = append(results, strings.TrimSpace(sub))
			continue
		}
		if utf8.RuneCountInString(line) < 200 && strings.HasSuffix(line, ".") {
			results = append(results, strings.TrimSpace(listPrefixRe.ReplaceAllString(line, "")))
		}
	}
	return results
}

func firstSubmatch(s string, res ...*regexp.Regexp) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// splitOutsideQuotes splits on commas that are not inside double quotes.
func splitOutsideQuotes(s string) []string {
	var (
		parts   []string
		current strings.Builder
		inQuote bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case r == ',' && !inQuote:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(parts, current.String())
}
