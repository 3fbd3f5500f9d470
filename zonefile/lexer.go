package zonefile

import (
	"bufio"
	"io"
	"regexp"
)

// Kind classifies a Token's text.
type Kind int

const (
	KindNone Kind = iota
	KindWhitespace
	KindParenOpen
	KindParenClose
	KindBareword
	KindNumber
	KindQuotedString
	KindDirective
)

// Token is one lexical unit of a zone file, with the 1-based source line on
// which it started.
type Token struct {
	Text string
	Kind Kind
	Line int
}

var (
	numberRe    = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)
	directiveRe = regexp.MustCompile(`^\$[A-Za-z]+$`)
)

func classifyBareword(s string) Kind {
	switch {
	case directiveRe.MatchString(s):
		return KindDirective
	case numberRe.MatchString(s):
		return KindNumber
	default:
		return KindBareword
	}
}

// Lexer is a stateful byte-at-a-time tokenizer for RFC 1035 zone file text.
// Its state is exactly the paren depth and the current line number; each
// call to Next advances that state by exactly one token (or one line-end
// signal).
type Lexer struct {
	r          *bufio.Reader
	line       int
	parenDepth int
}

// NewLexer returns a Lexer reading from r, starting at line 1.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r), line: 1}
}

// Next returns the next token. end reports that an unparenthesized newline
// (or a comment terminated by one, or by EOF) was crossed; when end is true
// the returned token may be the zero value, meaning no text was produced by
// this call. Next returns io.EOF once the input is exhausted and no further
// token or line-end remains to report.
func (l *Lexer) Next() (Token, bool, error) {
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			return Token{}, false, err
		}

		switch {
		case b == ';':
			hitNewline, err := l.skipComment()
			if err != nil {
				return Token{}, false, err
			}
			if hitNewline {
				l.line++
			}
			if l.parenDepth > 0 {
				return l.readWhitespace()
			}
			return Token{}, true, nil

		case b == '\n':
			l.line++
			if l.parenDepth > 0 {
				return l.readWhitespace()
			}
			return Token{}, true, nil

		case b == '\r':
			continue

		case b == '(':
			l.parenDepth++
			return Token{Text: "(", Kind: KindParenOpen, Line: l.line}, false, nil

		case b == ')':
			if l.parenDepth == 0 {
				return Token{}, false, &ParseError{Line: l.line, Msg: "unmatched closing parenthesis"}
			}
			l.parenDepth--
			return Token{Text: ")", Kind: KindParenClose, Line: l.line}, false, nil

		case b == ' ' || b == '\t':
			return l.readWhitespace()

		case b == '"':
			return l.readQuoted()

		default:
			return l.readBareword(b)
		}
	}
}

// skipComment consumes bytes up to and including a terminating newline; the
// caller accounts for that newline when hitNewline is true. hitNewline is
// false if EOF ended the comment instead.
func (l *Lexer) skipComment() (hitNewline bool, err error) {
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			return false, nil
		}
		if b == '\n' {
			return true, nil
		}
	}
}

func (l *Lexer) readWhitespace() (Token, bool, error) {
	startLine := l.line

	for {
		b, err := l.r.ReadByte()
		if err != nil {
			break
		}
		if b == ' ' || b == '\t' || b == '\r' {
			continue
		}
		if b == '\n' && l.parenDepth > 0 {
			l.line++
			continue
		}
		_ = l.r.UnreadByte()
		break
	}

	return Token{Text: " ", Kind: KindWhitespace, Line: startLine}, false, nil
}

func (l *Lexer) readQuoted() (Token, bool, error) {
	startLine := l.line
	var raw []byte

	for {
		b, err := l.r.ReadByte()
		if err != nil {
			return Token{}, false, &ParseError{Line: startLine, Msg: "unterminated quoted string"}
		}
		if b == '\n' {
			l.line++
		}
		if b == '\\' {
			b2, err := l.r.ReadByte()
			if err != nil {
				return Token{}, false, &ParseError{Line: startLine, Msg: "unterminated quoted string"}
			}
			raw = append(raw, b, b2)
			continue
		}
		if b == '"' {
			break
		}
		raw = append(raw, b)
	}

	return Token{Text: Unescape(string(raw)), Kind: KindQuotedString, Line: startLine}, false, nil
}

func isBarewordTerminator(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ';', '(', ')', '"':
		return true
	}
	return false
}

func (l *Lexer) readBareword(first byte) (Token, bool, error) {
	startLine := l.line
	buf := []byte{first}
	escape := first == '\\'

	for {
		b, err := l.r.ReadByte()
		if err != nil {
			break
		}
		if escape {
			buf = append(buf, b)
			escape = false
			continue
		}
		if b == '\\' {
			buf = append(buf, b)
			escape = true
			continue
		}
		if isBarewordTerminator(b) {
			_ = l.r.UnreadByte()
			break
		}
		buf = append(buf, b)
	}

	text := string(buf)
	return Token{Text: text, Kind: classifyBareword(text), Line: startLine}, false, nil
}
