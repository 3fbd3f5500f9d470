package zonefile

import "io"

// ReadLogicalLines drives a Lexer to completion and groups its token stream
// into LogicalLines, discarding lines that carry no content (blank lines,
// comment-only lines, and lines of pure whitespace).
func ReadLogicalLines(r io.Reader) ([]LogicalLine, error) {
	lx := NewLexer(r)

	var lines []LogicalLine
	var cur []Token

	flush := func() {
		if hasContent(cur) {
			lines = append(lines, LogicalLine{Tokens: cur, Line: cur[0].Line})
		}
		cur = nil
	}

	for {
		tok, end, err := lx.Next()
		if err == io.EOF {
			flush()
			return lines, nil
		}
		if err != nil {
			return nil, err
		}

		if tok.Kind != KindNone {
			cur = append(cur, tok)
		}

		if end {
			flush()
		}
	}
}

func hasContent(toks []Token) bool {
	for _, t := range toks {
		if t.Kind != KindWhitespace {
			return true
		}
	}
	return false
}
