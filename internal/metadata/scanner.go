package metadata

// jsonCandidates returns each balanced top-level {...} span in text, in
// order of appearance. The scanner tracks string and escape state so braces
// inside JSON strings do not affect nesting depth. Unclosed blocks are
// dropped.
func jsonCandidates(text string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
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
			// Quotes in surrounding prose are ignored; only quotes inside
			// a candidate block toggle string state.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, text[start:i+1])
				start = -1
			}
		}
	}
	return out
}
