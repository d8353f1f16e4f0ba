package domain

import (
	"fmt"
	"strings"
)

// Clause is one `'predicate' == 'value'` term of a query.
// A predicate of "*" matches any predicate; a value ending in "*" is a prefix.
type Clause struct {
	Predicate string
	Value     string
	Negate    bool
}

// Query is a conjunction of clauses, as accepted by the local search adapters.
type Query []Clause

// ParseQuery parses `'p1' == 'v1' && 'p2' != 'v2'`. Both `==` and `===` are accepted.
func ParseQuery(s string) (Query, error) {
	sc := &queryScanner{src: s}
	var q Query
	for {
		sc.skipSpace()
		if sc.done() {
			break
		}
		if len(q) > 0 {
			if !sc.consume("&&") {
				return nil, sc.errorf("expected &&")
			}
			sc.skipSpace()
		}

		pred, err := sc.quoted()
		if err != nil {
			return nil, err
		}
		sc.skipSpace()

		var negate bool
		switch {
		case sc.consume("==="), sc.consume("=="):
		case sc.consume("!=="), sc.consume("!="):
			negate = true
		default:
			return nil, sc.errorf("expected comparison operator")
		}
		sc.skipSpace()

		val, err := sc.quoted()
		if err != nil {
			return nil, err
		}
		q = append(q, Clause{Predicate: pred, Value: val, Negate: negate})
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	return q, nil
}

// Match reports whether the entity satisfies every clause.
func (q Query) Match(e *Entity) bool {
	for _, c := range q {
		if c.matchAny(e) == c.Negate {
			return false
		}
	}
	return true
}

func (c Clause) matchAny(e *Entity) bool {
	preds := []string{c.Predicate}
	if c.Predicate == "*" {
		preds = e.Predicates()
	}
	if c.Predicate == "@" {
		return c.matchText(e.ID())
	}
	for _, p := range preds {
		for _, v := range e.predicates[p] {
			if c.matchText(v.Text()) {
				return true
			}
		}
	}
	return false
}

func (c Clause) matchText(text string) bool {
	if prefix, ok := strings.CutSuffix(c.Value, "*"); ok {
		return strings.HasPrefix(text, prefix)
	}
	return text == c.Value
}

type queryScanner struct {
	src string
	pos int
}

func (s *queryScanner) done() bool { return s.pos >= len(s.src) }

func (s *queryScanner) skipSpace() {
	for !s.done() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t' || s.src[s.pos] == '\n') {
		s.pos++
	}
}

func (s *queryScanner) consume(tok string) bool {
	if strings.HasPrefix(s.src[s.pos:], tok) {
		s.pos += len(tok)
		return true
	}
	return false
}

func (s *queryScanner) quoted() (string, error) {
	if s.done() || (s.src[s.pos] != '\'' && s.src[s.pos] != '"') {
		return "", s.errorf("expected quoted string")
	}
	quote := s.src[s.pos]
	end := strings.IndexByte(s.src[s.pos+1:], quote)
	if end < 0 {
		return "", s.errorf("unterminated string")
	}
	text := s.src[s.pos+1 : s.pos+1+end]
	s.pos += end + 2
	return text, nil
}

func (s *queryScanner) errorf(msg string) error {
	return fmt.Errorf("%w: query %q at %d: %s", ErrInvalidArgument, s.src, s.pos, msg)
}
