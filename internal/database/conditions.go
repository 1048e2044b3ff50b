package database

import (
	"fmt"
	"reflect"
	"strings"
)

// Conditions is the loosely-typed filter payload accepted by the façade:
// a mapping from column name to one of
//
//   - a scalar               -> column = value
//   - nil                    -> column IS NULL
//   - a slice                -> column IN (...), or an (operator, value)
//     pair when it has two elements and the first is an allowed operator
//   - map with "op"/"value"  -> column <op> value
//   - a Cond variant         -> exactly what the constructor says
//
// The reserved OrKey entry holds a list of nested Conditions combined
// with OR. Shape ambiguity ends at normalizeCondition: every branch either
// yields a validated operator or fails hard.
type Conditions map[string]any

// OrKey is the reserved condition key for a nested OR-group.
const OrKey = "$or"

// Cond is the explicit, tagged form of a single condition value. Callers
// inside this codebase should prefer it over the raw wire shapes: In and
// Between cannot be confused with an operator pair, and the operator is
// fixed at construction time.
type Cond struct {
	op  string
	val any
}

// Eq matches column = v.
func Eq(v any) Cond { return Cond{op: "=", val: v} }

// Compare matches column <op> v for any allowed binary operator.
// The operator is validated during normalization, not here, so a bad
// operator still surfaces as a SecurityError from the build.
func Compare(op string, v any) Cond { return Cond{op: op, val: v} }

// In matches column IN (vs...).
func In(vs ...any) Cond { return Cond{op: "IN", val: vs} }

// NotIn matches column NOT IN (vs...).
func NotIn(vs ...any) Cond { return Cond{op: "NOT IN", val: vs} }

// Between matches column BETWEEN lo AND hi.
func Between(lo, hi any) Cond { return Cond{op: "BETWEEN", val: []any{lo, hi}} }

// NotBetween matches column NOT BETWEEN lo AND hi.
func NotBetween(lo, hi any) Cond { return Cond{op: "NOT BETWEEN", val: []any{lo, hi}} }

// IsNull matches column IS NULL.
func IsNull() Cond { return Cond{op: "IS NULL"} }

// IsNotNull matches column IS NOT NULL.
func IsNotNull() Cond { return Cond{op: "IS NOT NULL"} }

// Like matches column LIKE pattern.
func Like(pattern string) Cond { return Cond{op: "LIKE", val: pattern} }

// ILike matches column ILIKE pattern.
func ILike(pattern string) Cond { return Cond{op: "ILIKE", val: pattern} }

// Or builds the value for an OrKey entry from nested condition sets.
func Or(branches ...Conditions) []Conditions { return branches }

// normalizeCondition converts one filter entry into a canonical
// (column, operator, value) triple. The column always passes identifier
// validation and the operator always passes the operator allow-list;
// there is no fallback branch that can emit unvalidated SQL.
func normalizeCondition(key string, value any) (column, operator string, val any, err error) {
	column = strings.TrimSpace(key)
	if _, err = ValidateIdentifier(column); err != nil {
		return "", "", nil, err
	}

	// nil first: IS NULL carries no value at all.
	if value == nil {
		return column, "IS NULL", nil, nil
	}

	// Explicit variant form.
	if c, ok := value.(Cond); ok {
		operator, err = ValidateOperator(c.op)
		if err != nil {
			return "", "", nil, err
		}
		return column, operator, c.val, nil
	}

	// Slice form: either an (operator, value) pair or an IN list.
	if vals, ok := asValueSlice(value); ok {
		if len(vals) == 2 {
			if s, isStr := vals[0].(string); isStr {
				if op, opErr := ValidateOperator(s); opErr == nil {
					return column, op, vals[1], nil
				}
			}
		}

		if len(vals) == 0 {
			return "", "", nil, validationErrorf("IN list for column %q cannot be empty", column)
		}
		if len(vals) > maxInValues {
			return "", "", nil, securityErrorf("too many values in IN for column %q (max %d)", column, maxInValues)
		}
		return column, "IN", vals, nil
	}

	// Map form: {"op": operator, "value": value}.
	if m, ok := value.(map[string]any); ok {
		rawOp, hasOp := m["op"]
		if !hasOp {
			return "", "", nil, validationErrorf("map condition for column %q must have an 'op' key", column)
		}
		operator, err = ValidateOperator(fmt.Sprint(rawOp))
		if err != nil {
			return "", "", nil, err
		}
		return column, operator, m["value"], nil
	}

	// Anything else is a plain equality scalar.
	return column, "=", value, nil
}

// asValueSlice reports value as a []any when it is a slice or array of any
// element type. []byte is excluded: it is a bytea scalar, not a list.
func asValueSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asConditionsList coerces the supported shapes of an OrKey value into a
// list of condition sets.
func asConditionsList(value any) ([]Conditions, bool) {
	switch v := value.(type) {
	case []Conditions:
		return v, true
	case []map[string]any:
		out := make([]Conditions, len(v))
		for i, m := range v {
			out[i] = Conditions(m)
		}
		return out, true
	case []any:
		out := make([]Conditions, len(v))
		for i, e := range v {
			switch m := e.(type) {
			case Conditions:
				out[i] = m
			case map[string]any:
				out[i] = Conditions(m)
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
