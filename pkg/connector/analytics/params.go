package analytics

// stringValue extracts a string parameter, returning "" for anything
// else.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// stringList extracts a string-list parameter. Callers decoding JSON
// params hand us []any, direct callers hand us []string; both work.
func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}
