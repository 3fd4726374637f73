package condition

import (
	"errors"
	"fmt"
	"strings"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpGte Operator = ">="
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	// opTruthy is used for bare paths without an operator.
	opTruthy Operator = ""
)

var errEmptyExpression = errors.New("empty expression")

// Comparison is one parsed "path op literal" clause.
type Comparison struct {
	Path    string
	Op      Operator
	Literal string
	Quoted  bool
	Negated bool // only for bare "!path" truthiness checks
}

// splitTopLevel splits expr on sep, ignoring separators inside quotes.
func splitTopLevel(expr, sep string) ([]string, error) {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(expr[i:], sep):
			parts = append(parts, expr[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", expr)
	}
	return append(parts, expr[start:]), nil
}

// parseComparison scans for the first operator outside quotes.
func parseComparison(clause string) (Comparison, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return Comparison{}, errEmptyExpression
	}

	var quote byte
	for i := 0; i < len(clause); i++ {
		c := clause[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		op, ok := operatorAt(clause, i)
		if !ok {
			continue
		}
		path := strings.TrimSpace(clause[:i])
		if !validPath(path) {
			return Comparison{}, fmt.Errorf("invalid path %q", path)
		}
		literal, quoted, err := parseLiteral(clause[i+len(op):])
		if err != nil {
			return Comparison{}, err
		}
		return Comparison{Path: path, Op: op, Literal: literal, Quoted: quoted}, nil
	}
	if quote != 0 {
		return Comparison{}, fmt.Errorf("unterminated quote in %q", clause)
	}

	// No operator: bare truthiness check, optionally negated.
	negated := false
	path := clause
	if strings.HasPrefix(path, "!") {
		negated = true
		path = strings.TrimSpace(path[1:])
	}
	if !validPath(path) {
		return Comparison{}, fmt.Errorf("missing operator in %q", clause)
	}
	return Comparison{Path: path, Op: opTruthy, Negated: negated}, nil
}

// operatorAt checks two-character operators before single-character ones.
func operatorAt(s string, i int) (Operator, bool) {
	if i+1 < len(s) {
		switch Operator(s[i : i+2]) {
		case OpEq, OpNeq, OpGte, OpLte:
			return Operator(s[i : i+2]), true
		}
	}
	switch s[i] {
	case '>':
		return OpGt, true
	case '<':
		return OpLt, true
	}
	return "", false
}

func parseLiteral(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("missing literal")
	}
	if q := raw[0]; q == '\'' || q == '"' {
		if len(raw) < 2 || raw[len(raw)-1] != q {
			return "", false, fmt.Errorf("unterminated quote in %q", raw)
		}
		inner := raw[1 : len(raw)-1]
		if strings.IndexByte(inner, q) >= 0 {
			return "", false, fmt.Errorf("unexpected text after quoted literal %q", raw)
		}
		return inner, true, nil
	}
	return raw, false, nil
}

func validPath(path string) bool {
	if path == "" {
		return false
	}
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Validate reports whether expr is syntactically valid without reading any store.
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errEmptyExpression
	}
	disjuncts, err := splitTopLevel(expr, "||")
	if err != nil {
		return err
	}
	for _, d := range disjuncts {
		conjuncts, err := splitTopLevel(d, "&&")
		if err != nil {
			return err
		}
		for _, c := range conjuncts {
			if _, err := parseComparison(c); err != nil {
				return err
			}
		}
	}
	return nil
}
