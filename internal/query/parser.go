package query

import (
	"errors"
	"fmt"
	"strings"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
)

type parser struct {
	lex *lexer
}

// Parse compiles a query string into an immutable expression tree.
// Precedence, highest to lowest: !, &, |. All operators are left
// associative; word aliases (and/or/not) are equivalent to (&, |, !)
// except where a colon immediately follows the word, in which case it is
// a predicate key instead (e.g. "and:foo").
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, rdumperrors.NewQueryParseError(0, "a non-empty query", errors.New("empty query"))
	}

	p := &parser{lex: newLexer(input)}
	expr, err := p.parseOr()
	if err != nil {
		return nil, asParseError(err)
	}

	tok, err := p.peek(false)
	if err != nil {
		return nil, asParseError(err)
	}
	if tok.kind != tokEOF {
		return nil, rdumperrors.NewQueryParseError(tok.pos, "end of query", fmt.Errorf("unexpected trailing input %q", tok.text))
	}
	return expr, nil
}

func asParseError(err error) error {
	if pe, ok := err.(*positionedError); ok {
		return rdumperrors.NewQueryParseError(pe.pos, pe.expected, pe.err)
	}
	return rdumperrors.NewQueryParseError(0, "valid syntax", err)
}

type positionedError struct {
	pos      int
	expected string
	err      error
}

func (e *positionedError) Error() string { return e.err.Error() }

func (p *parser) peek(valueContext bool) (token, error) {
	save := p.lex.pos
	tok, err := p.lex.next(valueContext)
	p.lex.pos = save
	return tok, err
}

func (p *parser) matchSymbol(kind tokenKind) (bool, error) {
	save := p.lex.pos
	tok, err := p.lex.next(false)
	if err != nil {
		p.lex.pos = save
		return false, nil
	}
	if tok.kind == kind {
		return true, nil
	}
	p.lex.pos = save
	return false, nil
}

// matchWordOp consumes a word-alias operator (and/or/not) unless it is
// immediately followed by ':', in which case it is left unconsumed so
// parseAtom can read it as a predicate key.
func (p *parser) matchWordOp(word string) (bool, error) {
	save := p.lex.pos
	tok, err := p.lex.next(false)
	if err != nil {
		p.lex.pos = save
		return false, nil
	}
	if tok.kind != tokIdent || tok.text != word {
		p.lex.pos = save
		return false, nil
	}

	save2 := p.lex.pos
	tok2, err2 := p.lex.next(false)
	if err2 == nil && tok2.kind == tokColon {
		p.lex.pos = save
		return false, nil
	}
	p.lex.pos = save2
	return true, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if ok, _ := p.matchSymbol(tokPipe); ok {
			right, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			left = &Or{Left: left, Right: right}
			continue
		}
		if ok, _ := p.matchWordOp("or"); ok {
			right, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			left = &Or{Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if ok, _ := p.matchSymbol(tokAmp); ok {
			right, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			left = &And{Left: left, Right: right}
			continue
		}
		if ok, _ := p.matchWordOp("and"); ok {
			right, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			left = &And{Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseNot() (Expr, error) {
	if ok, _ := p.matchSymbol(tokBang); ok {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner}, nil
	}
	if ok, _ := p.matchWordOp("not"); ok {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Expr, error) {
	tok, err := p.peek(false)
	if err != nil {
		return nil, &positionedError{pos: p.lex.pos, expected: "an expression", err: err}
	}

	if tok.kind == tokLParen {
		if _, err := p.lex.next(false); err != nil {
			return nil, &positionedError{pos: tok.pos, expected: "'('", err: err}
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closeTok, err := p.lex.next(false)
		if err != nil {
			return nil, &positionedError{pos: p.lex.pos, expected: "')'", err: err}
		}
		if closeTok.kind != tokRParen {
			return nil, &positionedError{pos: closeTok.pos, expected: "')'", err: fmt.Errorf("unclosed parenthesis")}
		}
		return inner, nil
	}

	if tok.kind == tokEOF {
		return nil, &positionedError{pos: tok.pos, expected: "a predicate or '('", err: fmt.Errorf("unexpected end of query")}
	}

	keyTok, err := p.lex.next(false)
	if err != nil {
		return nil, &positionedError{pos: p.lex.pos, expected: "a predicate name", err: err}
	}
	if keyTok.kind != tokIdent {
		return nil, &positionedError{pos: keyTok.pos, expected: "a predicate name", err: fmt.Errorf("unexpected token %q", keyTok.text)}
	}

	colonTok, err := p.lex.next(false)
	if err != nil {
		return nil, &positionedError{pos: p.lex.pos, expected: "':'", err: err}
	}
	if colonTok.kind != tokColon {
		return nil, &positionedError{pos: colonTok.pos, expected: "':'", err: fmt.Errorf("predicate %q is missing a value", keyTok.text)}
	}

	valTok, err := p.lex.next(true)
	if err != nil {
		return nil, &positionedError{pos: p.lex.pos, expected: "a predicate value", err: err}
	}
	if valTok.kind != tokIdent && valTok.kind != tokString {
		return nil, &positionedError{pos: valTok.pos, expected: "a predicate value", err: fmt.Errorf("predicate %q is missing a value", keyTok.text)}
	}

	return &Predicate{Name: keyTok.text, Value: valTok.text}, nil
}
