package condition

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/spf13/cast"
)

// Evaluator is a pure predicate over the store's current snapshot. It never writes.
type Evaluator struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to report malformed conditions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New creates an Evaluator reading from store.
func New(store ports.KeyValueStore, opts ...Option) *Evaluator {
	e := &Evaluator{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate evaluates a single comparison. Errors evaluate to false.
func (e *Evaluator) Evaluate(ctx context.Context, expr string) bool {
	cmp, err := parseComparison(expr)
	if err != nil {
		e.report(expr, err)
		return false
	}
	ok, err := e.compare(ctx, cmp)
	if err != nil {
		e.report(expr, err)
		return false
	}
	return ok
}

// EvaluateCompound evaluates comparisons joined by && and ||. Errors evaluate to false.
func (e *Evaluator) EvaluateCompound(ctx context.Context, expr string) bool {
	ok, err := e.Check(ctx, expr)
	if err != nil {
		e.report(expr, err)
		return false
	}
	return ok
}

// Check evaluates a compound expression and returns a conditionError when it is malformed
// or the store fails.
func (e *Evaluator) Check(ctx context.Context, expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, &domain.ScriptError{Kind: domain.ErrCondition, Condition: expr, Err: errEmptyExpression}
	}

	disjuncts, err := splitTopLevel(expr, "||")
	if err != nil {
		return false, &domain.ScriptError{Kind: domain.ErrCondition, Condition: expr, Err: err}
	}

	// Parse everything up-front so a malformed tail is reported even when the head short-circuits.
	groups := make([][]Comparison, 0, len(disjuncts))
	for _, d := range disjuncts {
		conjuncts, err := splitTopLevel(d, "&&")
		if err != nil {
			return false, &domain.ScriptError{Kind: domain.ErrCondition, Condition: expr, Err: err}
		}
		group := make([]Comparison, 0, len(conjuncts))
		for _, c := range conjuncts {
			cmp, err := parseComparison(c)
			if err != nil {
				return false, &domain.ScriptError{Kind: domain.ErrCondition, Condition: expr, Err: err}
			}
			group = append(group, cmp)
		}
		groups = append(groups, group)
	}

	for _, group := range groups {
		all := true
		for _, cmp := range group {
			ok, err := e.compare(ctx, cmp)
			if err != nil {
				return false, &domain.ScriptError{Kind: domain.ErrCondition, Condition: expr, Err: err}
			}
			if !ok {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) compare(ctx context.Context, cmp Comparison) (bool, error) {
	value, found, err := e.store.Get(ctx, cmp.Path)
	if err != nil {
		return false, err
	}

	if cmp.Op == opTruthy {
		return truthy(value, found) != cmp.Negated, nil
	}

	// Undefined differs from everything.
	if !found {
		return cmp.Op == OpNeq, nil
	}

	// 1. Numeric
	if left, ok := asNumber(value); ok {
		if right, ok := parseNumber(cmp.Literal); ok {
			return compareNumbers(left, right, cmp.Op), nil
		}
	}

	// 2. Boolean
	if !cmp.Quoted && (cmp.Literal == "true" || cmp.Literal == "false") {
		right := cmp.Literal == "true"
		if left, ok := asBool(value); ok {
			switch cmp.Op {
			case OpEq:
				return left == right, nil
			case OpNeq:
				return left != right, nil
			}
			return false, nil
		}
	}

	// 3. String
	left := kv.Format(value)
	switch cmp.Op {
	case OpEq:
		return left == cmp.Literal, nil
	case OpNeq:
		return left != cmp.Literal, nil
	}
	return false, nil
}

func (e *Evaluator) report(expr string, err error) {
	e.logger.Warn("condition evaluated as false", "condition", expr, "kind", domain.ErrCondition, "err", err)
}

func compareNumbers(a, b float64, op Operator) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	}
	return false
}

// asNumber accepts stored numbers and numeric strings, but never booleans.
func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case bool, []any, nil:
		return 0, false
	case string:
		return parseNumber(val)
	default:
		f, err := cast.ToFloat64E(val)
		return f, err == nil
	}
}

// parseNumber accepts plain finite decimals only. Words such as "nan" or "Infinity"
// stay strings.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "+-0123456789.eE") != "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		if val == "true" || val == "false" {
			return val == "true", true
		}
	}
	return false, false
}

func truthy(v any, found bool) bool {
	if !found {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != "" && val != "false" && val != "0"
	case []any:
		return len(val) > 0
	}
	f, err := cast.ToFloat64E(v)
	return err == nil && f != 0
}
