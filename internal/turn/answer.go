package turn

import (
	"errors"
	"strings"
)

// Reserved utterances sent by clients in place of an answer.
const (
	SkipSentinel  = "__skip__"
	StartSentinel = "__start__"
)

var ErrEmptyAnswer = errors.New("answer is empty")

type AnswerKind int

const (
	AnswerText AnswerKind = iota
	AnswerSkip
	AnswerStart
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerSkip:
		return "skip"
	case AnswerStart:
		return "start"
	default:
		return "text"
	}
}

// Answer is a candidate utterance decoded once at the edge.
type Answer struct {
	Kind AnswerKind
	Text string
}

func Skip() Answer               { return Answer{Kind: AnswerSkip, Text: SkipSentinel} }
func Start() Answer              { return Answer{Kind: AnswerStart, Text: StartSentinel} }
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// ParseAnswer maps the raw utterance onto its variant. Sentinels must match
// exactly; blank text is rejected.
func ParseAnswer(raw string) (Answer, error) {
	switch raw {
	case SkipSentinel:
		return Skip(), nil
	case StartSentinel:
		return Start(), nil
	}
	if strings.TrimSpace(raw) == "" {
		return Answer{}, ErrEmptyAnswer
	}
	return TextAnswer(raw), nil
}
