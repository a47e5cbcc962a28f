package turn

import "strings"

type Kind string

const (
	KindStart         Kind = "start"
	KindSkip          Kind = "skip"
	KindClarification Kind = "clarification"
	KindSubstantive   Kind = "substantive"
)

// clarificationPhrases are matched as plain substrings of the lowercased
// utterance, so "explain" anywhere in an answer also counts.
var clarificationPhrases = []string{
	"what",
	"could you",
	"can you",
	"please repeat",
	"again",
	"i didn't",
	"clarify",
	"explain",
	"repeat",
	"say again",
	"did you mean",
}

// Classify routes an answer. Sentinels win over everything, then
// clarification over substantive.
func Classify(a Answer) Kind {
	switch a.Kind {
	case AnswerStart:
		return KindStart
	case AnswerSkip:
		return KindSkip
	}
	if IsClarification(a.Text) {
		return KindClarification
	}
	return KindSubstantive
}

func IsClarification(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	for _, p := range clarificationPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
