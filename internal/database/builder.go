package database

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// whereBuilder owns the positional placeholder counter and the parameter
// vector for one statement. Placeholder indices only ever move forward, so
// clause text and parameters cannot desynchronize across nested groups.
type whereBuilder struct {
	next   int
	params []any
}

func newWhereBuilder(start int) *whereBuilder {
	return &whereBuilder{next: start}
}

// placeholder appends v to the parameter vector and returns the matching
// positional marker.
func (b *whereBuilder) placeholder(v any) string {
	b.params = append(b.params, v)
	p := "$" + strconv.Itoa(b.next)
	b.next++
	return p
}

// BuildWhere renders a WHERE predicate and its parameter vector from a
// condition set, with placeholders starting at $1. Empty input renders the
// literal TRUE predicate: SELECT and COUNT accept an unfiltered scan on
// purpose (LIMIT/OFFSET bounds cap it), while UPDATE and DELETE refuse
// empty conditions before ever reaching this function.
func BuildWhere(conds Conditions, useOr bool) (string, []any, error) {
	return buildWhereClause(conds, useOr, 1)
}

func buildWhereClause(conds Conditions, useOr bool, start int) (string, []any, error) {
	if len(conds) == 0 {
		return "TRUE", nil, nil
	}

	b := newWhereBuilder(start)
	var parts []string

	// Map iteration order is random; sorted keys keep the clause text and
	// the parameter vector deterministic for identical inputs.
	for _, key := range sortedKeys(conds) {
		value := conds[key]

		if key == OrKey {
			branches, ok := asConditionsList(value)
			if !ok {
				return "", nil, validationErrorf("%s value must be a list of condition sets", OrKey)
			}
			if len(branches) > maxOrConditions {
				return "", nil, securityErrorf("too many OR conditions (max %d)", maxOrConditions)
			}

			var orParts []string
			for _, branch := range branches {
				clause, params, err := buildWhereClause(branch, false, b.next)
				if err != nil {
					return "", nil, err
				}
				orParts = append(orParts, "("+clause+")")
				b.params = append(b.params, params...)
				b.next += len(params)
			}
			if len(orParts) > 0 {
				parts = append(parts, "("+strings.Join(orParts, " OR ")+")")
			}
			continue
		}

		column, op, val, err := normalizeCondition(key, value)
		if err != nil {
			return "", nil, err
		}

		switch op {
		case "IS NULL", "IS NOT NULL":
			parts = append(parts, column+" "+op)

		case "IN", "NOT IN":
			vals, ok := asValueSlice(val)
			if !ok {
				return "", nil, validationErrorf("%s for column %q requires a list of values", op, column)
			}
			// An empty list is unsatisfiable, not invalid SQL.
			if len(vals) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			if len(vals) > maxInValues {
				return "", nil, securityErrorf("too many values in %s for column %q (max %d)", op, column, maxInValues)
			}
			ph := make([]string, len(vals))
			for i, v := range vals {
				ph[i] = b.placeholder(v)
			}
			parts = append(parts, fmt.Sprintf("%s %s (%s)", column, op, strings.Join(ph, ",")))

		case "BETWEEN", "NOT BETWEEN":
			vals, ok := asValueSlice(val)
			if !ok || len(vals) != 2 {
				return "", nil, validationErrorf("%s for column %q requires exactly two values", op, column)
			}
			lo := b.placeholder(vals[0])
			hi := b.placeholder(vals[1])
			parts = append(parts, fmt.Sprintf("%s %s %s AND %s", column, op, lo, hi))

		default:
			parts = append(parts, fmt.Sprintf("%s %s %s", column, op, b.placeholder(val)))
		}
	}

	if len(parts) == 0 {
		return "TRUE", nil, nil
	}

	joiner := " AND "
	if useOr {
		joiner = " OR "
	}
	return strings.Join(parts, joiner), b.params, nil
}

// buildSelect assembles a SELECT statement. Every fragment it touches is
// validated here even when the caller already did so.
func buildSelect(table string, conds Conditions, opts ReadOptions) (string, []any, error) {
	tbl, err := ValidateTable(table)
	if err != nil {
		return "", nil, err
	}

	fieldsStr := "*"
	if len(opts.Fields) > 0 {
		if len(opts.Fields) > maxFields {
			return "", nil, validationErrorf("too many fields (max %d)", maxFields)
		}
		validated := make([]string, len(opts.Fields))
		for i, f := range opts.Fields {
			if validated[i], err = ValidateIdentifier(f); err != nil {
				return "", nil, err
			}
		}
		fieldsStr = strings.Join(validated, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + fieldsStr + " FROM " + tbl)

	var params []any
	if len(conds) > 0 {
		clause, whereParams, err := buildWhereClause(conds, opts.UseOr, 1)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE " + clause)
		params = whereParams
	}

	if opts.OrderBy != "" {
		order, err := validateOrderBy(tbl, opts.OrderBy)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" ORDER BY " + order)
	}

	if opts.Limit != 0 {
		if err := validateLimit(opts.Limit); err != nil {
			return "", nil, err
		}
		params = append(params, opts.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(params)))
	}

	if opts.Offset != 0 {
		if err := validateOffset(opts.Offset); err != nil {
			return "", nil, err
		}
		params = append(params, opts.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(params)))
	}

	return sb.String(), params, nil
}

// buildInsert assembles an INSERT with columns in sorted order, so the
// placeholder sequence and the parameter vector always line up. Returns
// the validated RETURNING column ("" when none was requested).
func buildInsert(table string, data map[string]any, returning string) (string, []any, string, error) {
	tbl, err := ValidateTable(table)
	if err != nil {
		return "", nil, "", err
	}
	if len(data) == 0 {
		return "", nil, "", validationErrorf("insert data cannot be empty")
	}

	columns := sortedKeys(data)
	params := make([]any, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		if _, err := ValidateIdentifier(col); err != nil {
			return "", nil, "", err
		}
		params[i] = data[col]
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	retCol := ""
	if returning != "" {
		if retCol, err = ValidateIdentifier(returning); err != nil {
			return "", nil, "", err
		}
		query += " RETURNING " + retCol
	}

	return query, params, retCol, nil
}

// buildUpdate assembles an UPDATE. Empty conditions are a hard failure:
// an unfiltered UPDATE is assumed to be a bug, never an intent.
func buildUpdate(table string, data map[string]any, conds Conditions, returning string) (string, []any, string, error) {
	tbl, err := ValidateTable(table)
	if err != nil {
		return "", nil, "", err
	}
	if len(data) == 0 {
		return "", nil, "", validationErrorf("update data cannot be empty")
	}
	if len(conds) == 0 {
		return "", nil, "", validationErrorf("update conditions cannot be empty (prevents accidental mass update)")
	}

	columns := sortedKeys(data)
	setParts := make([]string, len(columns))
	params := make([]any, len(columns))
	for i, col := range columns {
		if _, err := ValidateIdentifier(col); err != nil {
			return "", nil, "", err
		}
		setParts[i] = col + " = $" + strconv.Itoa(i+1)
		params[i] = data[col]
	}

	clause, whereParams, err := buildWhereClause(conds, false, len(params)+1)
	if err != nil {
		return "", nil, "", err
	}
	params = append(params, whereParams...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", tbl, strings.Join(setParts, ", "), clause)

	retCol := ""
	if returning != "" {
		if retCol, err = ValidateIdentifier(returning); err != nil {
			return "", nil, "", err
		}
		query += " RETURNING " + retCol
	}

	return query, params, retCol, nil
}

// buildDelete assembles a DELETE with the same mass-mutation guard as
// buildUpdate.
func buildDelete(table string, conds Conditions, returning string) (string, []any, string, error) {
	tbl, err := ValidateTable(table)
	if err != nil {
		return "", nil, "", err
	}
	if len(conds) == 0 {
		return "", nil, "", validationErrorf("delete conditions cannot be empty (prevents accidental truncate)")
	}

	clause, params, err := buildWhereClause(conds, false, 1)
	if err != nil {
		return "", nil, "", err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tbl, clause)

	retCol := ""
	if returning != "" {
		if retCol, err = ValidateIdentifier(returning); err != nil {
			return "", nil, "", err
		}
		query += " RETURNING " + retCol
	}

	return query, params, retCol, nil
}

// buildCount assembles a COUNT(*) statement with an optional WHERE.
func buildCount(table string, conds Conditions) (string, []any, error) {
	tbl, err := ValidateTable(table)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT COUNT(*) FROM " + tbl
	var params []any
	if len(conds) > 0 {
		clause, whereParams, err := buildWhereClause(conds, false, 1)
		if err != nil {
			return "", nil, err
		}
		query += " WHERE " + clause
		params = whereParams
	}
	return query, params, nil
}

// buildBulkInsert assembles one multi-row INSERT for a chunk of rows.
// Every row must supply every column; the placeholder range restarts at $1
// because each chunk is its own statement.
func buildBulkInsert(table string, columns []string, chunk []map[string]any, retCol string) (string, []any, error) {
	valuesRows := make([]string, len(chunk))
	params := make([]any, 0, len(chunk)*len(columns))
	idx := 1

	for i, row := range chunk {
		rowPlaceholders := make([]string, len(columns))
		for j, col := range columns {
			v, ok := row[col]
			if !ok {
				return "", nil, validationErrorf("column %q missing in row %d", col, i)
			}
			rowPlaceholders[j] = "$" + strconv.Itoa(idx)
			params = append(params, v)
			idx++
		}
		valuesRows[i] = "(" + strings.Join(rowPlaceholders, ",") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ","), strings.Join(valuesRows, ","))
	if retCol != "" {
		query += " RETURNING " + retCol
	}
	return query, params, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
