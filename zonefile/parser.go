package zonefile

import (
	"io"
	"strconv"
	"strings"

	"github.com/bpwilder/delegaudit/rrdata"
)

// Parse reads a complete zone file from r and returns its directives and
// origin-qualified records in file order. origin is the zone's initial
// $ORIGIN, used for any record appearing before the file's own $ORIGIN
// directive (if any); pass the zone's apex name, e.g. "." for the root zone.
func Parse(r io.Reader, origin string) (*Zone, error) {
	lines, err := ReadLogicalLines(r)
	if err != nil {
		return nil, err
	}

	z := &Zone{}
	var lastOwner *Name

	for _, ln := range lines {
		toks := ln.Tokens
		if len(toks) == 0 {
			continue
		}

		if toks[0].Kind == KindDirective {
			d, err := parseDirective(toks)
			if err != nil {
				return nil, err
			}
			z.Entries = append(z.Entries, Entry{Directive: d})
			continue
		}

		rec, newOwner, err := parseRecordLine(toks, lastOwner)
		if err != nil {
			return nil, err
		}
		lastOwner = newOwner
		z.Entries = append(z.Entries, Entry{Record: rec})
	}

	if err := qualifyZone(z, origin); err != nil {
		return nil, err
	}

	return z, nil
}

func parseDirective(toks []Token) (*Directive, error) {
	name := strings.TrimPrefix(toks[0].Text, "$")

	idx := 1
	for idx < len(toks) && toks[idx].Kind == KindWhitespace {
		idx++
	}
	if idx >= len(toks) {
		return nil, &ParseError{Line: toks[0].Line, Msg: "directive missing value: $" + name}
	}

	return &Directive{
		Name:  strings.ToUpper(name),
		Value: toks[idx].Text,
		Line:  toks[0].Line,
	}, nil
}

// stripParens drops paren-open/paren-close tokens: they have already done
// their job of suppressing line-end signals inside the lexer and carry no
// field content of their own.
func stripParens(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == KindParenOpen || t.Kind == KindParenClose {
			continue
		}
		out = append(out, t)
	}
	return out
}

// fieldsOf returns the non-whitespace tokens of a logical line, erroring if
// two of them are adjacent without an intervening whitespace token (which
// can only happen at a quote or paren boundary, since the lexer otherwise
// merges contiguous non-special bytes into a single bareword).
func fieldsOf(toks []Token) ([]Token, error) {
	var fields []Token
	prevContent := false

	for _, t := range toks {
		if t.Kind == KindWhitespace {
			prevContent = false
			continue
		}
		if prevContent {
			return nil, &ParseError{Line: t.Line, Msg: "missing whitespace separator"}
		}
		fields = append(fields, t)
		prevContent = true
	}

	return fields, nil
}

func parseRecordLine(rawToks []Token, lastOwner *Name) (*Record, *Name, error) {
	toks := stripParens(rawToks)
	blankOwner := len(toks) > 0 && toks[0].Kind == KindWhitespace

	fields, err := fieldsOf(toks)
	if err != nil {
		return nil, nil, err
	}

	var owner Name
	idx := 0

	if blankOwner {
		if lastOwner == nil {
			return nil, nil, &ParseError{Line: rawToks[0].Line, Msg: "record has no owner and none precedes it"}
		}
		owner = *lastOwner
	} else {
		if len(fields) == 0 {
			return nil, nil, &ParseError{Line: rawToks[0].Line, Msg: "empty record line"}
		}
		owner = Name{Literal: fields[0].Text}
		idx = 1
	}

	var ttl uint32
	class := rrdata.ClassIN
	var haveTTL, haveClass bool

	for idx < len(fields) {
		t := fields[idx]

		if !haveTTL && t.Kind == KindNumber {
			n, err := strconv.ParseUint(t.Text, 10, 32)
			if err != nil {
				return nil, nil, &ParseError{Line: t.Line, Msg: "invalid TTL: " + t.Text}
			}
			ttl = uint32(n)
			haveTTL = true
			idx++
			continue
		}

		if !haveClass {
			if c, ok := rrdata.StringToClass(strings.ToUpper(t.Text)); ok {
				class = c
				haveClass = true
				idx++
				continue
			}
		}

		break
	}

	if idx >= len(fields) {
		return nil, nil, &ParseError{Line: rawToks[0].Line, Msg: "record missing type"}
	}
	typeTok := fields[idx]
	idx++

	rtype, _ := rrdata.StringToType(strings.ToUpper(typeTok.Text))

	data, err := parseRDATA(rtype, fields[idx:])
	if err != nil {
		return nil, nil, err
	}

	rec := &Record{
		Owner: owner,
		TTL:   ttl,
		Class: class,
		Type:  rtype,
		RDATA: data,
		Line:  rawToks[0].Line,
	}

	return rec, &rec.Owner, nil
}

func qualify(literal, origin string) string {
	if literal == "@" {
		return origin
	}
	if strings.HasSuffix(literal, ".") {
		return literal
	}
	return literal + "." + origin
}

func qualifyRDATA(data rrdata.RDATA, origin string) {
	switch d := data.(type) {
	case *rrdata.NameRR:
		d.Name = qualify(d.Name, origin)
	case *rrdata.MX:
		d.Target = qualify(d.Target, origin)
	case *rrdata.SOA:
		d.MName = qualify(d.MName, origin)
		d.RName = qualify(d.RName, origin)
	}
}

func qualifyZone(z *Zone, origin string) error {
	currentOrigin := origin
	var currentTTL uint32

	for i := range z.Entries {
		e := &z.Entries[i]

		if e.Directive != nil {
			switch e.Directive.Name {
			case "ORIGIN":
				if !strings.HasSuffix(e.Directive.Value, ".") {
					return &ParseError{Line: e.Directive.Line, Msg: "$ORIGIN requires an absolute name"}
				}
				currentOrigin = e.Directive.Value
			case "TTL":
				if n, err := strconv.ParseUint(e.Directive.Value, 10, 32); err == nil {
					currentTTL = uint32(n)
				}
			}
			z.Directives = append(z.Directives, *e.Directive)
			continue
		}

		rec := e.Record
		rec.Owner.FQDN = qualify(rec.Owner.Literal, currentOrigin)
		if rec.TTL == 0 {
			rec.TTL = currentTTL
		}
		qualifyRDATA(rec.RDATA, currentOrigin)
		z.Records = append(z.Records, *rec)
	}

	return nil
}
