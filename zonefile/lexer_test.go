package zonefile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerQuotedString(t *testing.T) {
	lx := NewLexer(strings.NewReader(`"he said \"hi\""`))

	tok, end, err := lx.Next()
	require.NoError(t, err)
	assert.False(t, end)
	assert.Equal(t, KindQuotedString, tok.Kind)
	assert.Equal(t, `he said "hi"`, tok.Text)
}

func TestLexerParensSuppressLineEnd(t *testing.T) {
	input := "a IN A (\n  10.0.0.1\n)"
	lines, err := ReadLogicalLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestLexerUnmatchedCloseParen(t *testing.T) {
	lx := NewLexer(strings.NewReader(")"))
	_, _, err := lx.Next()
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestLexerCommentDropped(t *testing.T) {
	lines, err := ReadLogicalLines(strings.NewReader("a IN A 10.0.0.1 ; a comment\n"))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	for _, tok := range line.Tokens {
		assert.NotContains(t, tok.Text, "comment")
	}
}

func TestLexerClassification(t *testing.T) {
	lines, err := ReadLogicalLines(strings.NewReader("$TTL 3600\n"))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	var kinds []Kind
	for _, tok := range lines[0].Tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{KindDirective, KindWhitespace, KindNumber}, kinds)
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	inputs := []string{
		"plain text",
		"tab\tnewline\n",
		string([]byte{0x01, 0x02, 0xff}),
		`quote " inside`,
	}

	for _, in := range inputs {
		assert.Equal(t, in, Unescape(Escape(in)), "round trip of %q", in)
	}
}

func TestBlankLineDiscarded(t *testing.T) {
	lines, err := ReadLogicalLines(strings.NewReader("\n   \n; just a comment\n"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
