// Package llmjson recovers JSON values from free-form language model output.
//
// Model replies routinely wrap JSON in prose or markdown fences, or stop
// mid-value when they hit an output limit. Extract handles the first two
// cases, Repair the third. Neither returns an error: a reply that cannot be
// recovered yields ok == false.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// Extract returns the first JSON value found in text, trying in order:
// the interior of a fenced code block, the span from the first '{' to the
// last '}', and every balanced brace span in closing order.
func Extract(text string) (any, bool) {
	if text == "" {
		return nil, false
	}
	return First(
		func() (any, bool) { return fromFence(text) },
		func() (any, bool) { return fromOuterBraces(text) },
		func() (any, bool) { return fromBalancedSpans(text) },
	)
}

// ExtractObject is Extract restricted to JSON objects.
func ExtractObject(text string) (map[string]any, bool) {
	return asObject(Extract(text))
}

func fromFence(text string) (any, bool) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return parse(strings.TrimSpace(m[1]))
}

func fromOuterBraces(text string) (any, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return nil, false
	}
	return parse(text[first : last+1])
}

// fromBalancedSpans pops the most recent '{' at every '}' and tries that
// exact span, so the innermost closed object wins over larger ones.
func fromBalancedSpans(text string) (any, bool) {
	var stack []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if v, ok := parse(text[start : i+1]); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func parse(s string) (any, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func asObject(v any, ok bool) (map[string]any, bool) {
	if !ok {
		return nil, false
	}
	m, isMap := v.(map[string]any)
	return m, isMap
}
