package turn

import (
	"strings"
	"unicode/utf8"

	"github.com/yoockh/intervue/internal/llmjson"
)

type Action string

const (
	ActionAsk     Action = "ask"
	ActionProceed Action = "proceed"
	ActionEnd     Action = "end"
)

// Decision is the model's verdict on a substantive answer.
type Decision struct {
	Action Action
	Text   string
}

// ParseDecision reads {"action": ..., "text": ...} out of a model reply.
// Unknown actions count as proceed; an ask without text is rejected.
func ParseDecision(reply string) (Decision, bool) {
	obj, ok := llmjson.First(
		func() (map[string]any, bool) { return llmjson.ExtractObject(reply) },
		func() (map[string]any, bool) { return llmjson.RepairFromBrace(reply) },
	)
	if !ok {
		return Decision{}, false
	}
	raw, ok := obj["action"].(string)
	if !ok {
		return Decision{}, false
	}

	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionAsk:
		text, _ := obj["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			return Decision{}, false
		}
		return Decision{Action: ActionAsk, Text: text}, true
	case ActionEnd:
		return Decision{Action: ActionEnd}, true
	default:
		return Decision{Action: ActionProceed}, true
	}
}

// FallbackDecision is used when the model gives no usable decision: short
// answers get a generic follow-up, everything else moves on.
func FallbackDecision(answer string, shortAnswerRunes int) Decision {
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < shortAnswerRunes {
		return Decision{Action: ActionAsk, Text: ExpandFollowUp}
	}
	return Decision{Action: ActionProceed}
}
