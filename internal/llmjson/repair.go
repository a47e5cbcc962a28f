package llmjson

import (
	"regexp"
	"strings"
)

const (
	maxClosersPerKind = 6
	maxTrailingCuts   = 5
	trailingJunkSet   = " \t\r\n,"
)

var (
	fenceMarkerRe  = regexp.MustCompile("(?i)```(?:json)?")
	commaBeforeObj = regexp.MustCompile(`,\s*}`)
	commaBeforeArr = regexp.MustCompile(`,\s*]`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x1F]+`)
)

// Repair normalizes a candidate that is expected to hold one JSON value,
// typically a reply cut off by an output limit. It strips fences and
// trailing commas, drops text before the first '{', closes open strings,
// arrays and objects, and finally retries with up to five characters cut
// from the end.
func Repair(candidate string) (any, bool) {
	if strings.TrimSpace(candidate) == "" {
		return nil, false
	}

	work := fenceMarkerRe.ReplaceAllString(candidate, "")
	work = commaBeforeObj.ReplaceAllString(work, "}")
	work = commaBeforeArr.ReplaceAllString(work, "]")
	if first := strings.Index(work, "{"); first > 0 {
		work = work[first:]
	}

	if v, ok := parse(work); ok {
		return v, true
	}

	work = strings.TrimSpace(controlCharsRe.ReplaceAllString(work, ""))
	if v, ok := parse(closeOpen(work)); ok {
		return v, true
	}

	runes := []rune(work)
	for cut := 1; cut <= maxTrailingCuts && cut < len(runes); cut++ {
		if v, ok := parse(closeOpen(string(runes[:len(runes)-cut]))); ok {
			return v, true
		}
	}
	return nil, false
}

// RepairObject is Repair restricted to JSON objects.
func RepairObject(candidate string) (map[string]any, bool) {
	return asObject(Repair(candidate))
}

// RepairFromBrace applies Repair to text starting at its first '{'.
func RepairFromBrace(text string) (map[string]any, bool) {
	first := strings.Index(text, "{")
	if first < 0 {
		return nil, false
	}
	return RepairObject(text[first:])
}

// closeOpen terminates an unfinished string and appends the closers for
// every still-open object or array, innermost first.
func closeOpen(s string) string {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if n := len(stack); n > 0 && matches(stack[n-1], c) {
				stack = stack[:n-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		if escaped {
			trimmed := strings.TrimSuffix(b.String(), "\\")
			b.Reset()
			b.WriteString(trimmed)
		}
		b.WriteByte('"')
	}

	out := strings.TrimRight(b.String(), trailingJunkSet)
	if strings.HasSuffix(out, ":") {
		out += "null"
	}

	b.Reset()
	b.WriteString(out)
	braces, brackets := 0, 0
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			if braces == maxClosersPerKind {
				continue
			}
			braces++
			b.WriteByte('}')
		} else {
			if brackets == maxClosersPerKind {
				continue
			}
			brackets++
			b.WriteByte(']')
		}
	}
	return b.String()
}

func matches(open, close byte) bool {
	return (open == '{' && close == '}') || (open == '[' && close == ']')
}
