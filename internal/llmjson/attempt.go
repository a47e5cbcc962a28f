package llmjson

// First runs each recovery attempt in order and returns the first result
// reported ok. Nil attempts are skipped.
func First[T any](attempts ...func() (T, bool)) (T, bool) {
	for _, a := range attempts {
		if a == nil {
			continue
		}
		if v, ok := a(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
