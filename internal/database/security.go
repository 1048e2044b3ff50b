package database

import (
	"regexp"
	"sort"
	"strings"
)

// Identifier validation is two-stage: the lexical pattern stops anything
// that is not a plain SQL name, and the allow-lists stop names that are
// syntactically fine but unauthorized. A valid-looking table name missing
// from allowedTables is treated as a probable attack, not a typo.

// identifierPattern matches a bare SQL identifier: starts with a letter or
// underscore, alphanumeric/underscore after that, max 64 characters
// (the PostgreSQL identifier limit).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// allowedTables is the closed set of tables this application may touch.
var allowedTables = map[string]struct{}{
	"users":         {},
	"products":      {},
	"orders":        {},
	"payments":      {},
	"notifications": {},
}

// allowedOrderColumns restricts ORDER BY to known-indexed columns per table.
var allowedOrderColumns = map[string]map[string]struct{}{
	"users":         {"id": {}, "created_at": {}, "updated_at": {}, "email": {}},
	"products":      {"id": {}, "name": {}, "price": {}, "created_at": {}},
	"orders":        {"id": {}, "created_at": {}, "status": {}, "total": {}},
	"payments":      {"id": {}, "created_at": {}, "amount": {}},
	"notifications": {"id": {}, "created_at": {}, "sent_at": {}},
}

// allowedOperators is the closed set of comparison operators that may ever
// appear in generated SQL. Input is upper-cased before the check.
var allowedOperators = map[string]struct{}{
	"=": {}, "!=": {}, ">": {}, "<": {}, ">=": {}, "<=": {},
	"LIKE": {}, "ILIKE": {},
	"IN": {}, "NOT IN": {},
	"IS NULL": {}, "IS NOT NULL": {},
	"BETWEEN": {}, "NOT BETWEEN": {},
}

// Bounds protecting against oversized statements and unbounded scans.
const (
	maxInValues     = 1000
	maxOrConditions = 100
	maxLimit        = 10000
	maxOffset       = 1000000
	maxFields       = 50
)

// ValidateIdentifier checks a table or column name against the identifier
// pattern. It returns the name unchanged on success and a *SecurityError
// otherwise.
func ValidateIdentifier(name string) (string, error) {
	if name == "" {
		return "", securityErrorf("identifier must be a non-empty string")
	}
	if !identifierPattern.MatchString(name) {
		return "", securityErrorf("invalid identifier %q: must match [A-Za-z_][A-Za-z0-9_]{0,63}", name)
	}
	return name, nil
}

// ValidateTable checks a table name syntactically and then against the
// table allow-list. Pattern validation alone is not enough: a legitimate-
// looking name pointing at an unintended table is still an injection.
func ValidateTable(table string) (string, error) {
	if _, err := ValidateIdentifier(table); err != nil {
		return "", err
	}
	if _, ok := allowedTables[table]; !ok {
		return "", securityErrorf("table %q not allowed; allowed: %s", table, joinSorted(allowedTables))
	}
	return table, nil
}

// ValidateOperator trims and upper-cases op, then checks it against the
// operator allow-list. No operator reaches generated SQL without passing
// through here.
func ValidateOperator(op string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(op))
	if _, ok := allowedOperators[upper]; !ok {
		return "", securityErrorf("operator %q not allowed; allowed: %s", op, joinSorted(allowedOperators))
	}
	return upper, nil
}

// validateOrderBy accepts "column" or "column ASC|DESC" (case-insensitive
// direction), checks the column against the per-table ORDER BY allow-list,
// and returns the reconstructed "column DIRECTION" string.
func validateOrderBy(table, orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "", validationErrorf("ORDER BY cannot be empty")
	}

	parts := strings.Fields(orderBy)
	if len(parts) > 2 {
		return "", securityErrorf("invalid ORDER BY %q: expected 'column [ASC|DESC]'", orderBy)
	}

	column, err := ValidateIdentifier(parts[0])
	if err != nil {
		return "", err
	}

	if cols, ok := allowedOrderColumns[table]; ok {
		if _, ok := cols[column]; !ok {
			return "", securityErrorf("column %q not allowed for ORDER BY on table %q; allowed: %s",
				column, table, joinSorted(cols))
		}
	}

	direction := "ASC"
	if len(parts) == 2 {
		direction = strings.ToUpper(parts[1])
		if direction != "ASC" && direction != "DESC" {
			return "", securityErrorf("invalid ORDER BY direction %q", parts[1])
		}
	}

	return column + " " + direction, nil
}

func validateLimit(limit int) error {
	if limit < 0 {
		return validationErrorf("LIMIT must be non-negative")
	}
	if limit > maxLimit {
		return validationErrorf("LIMIT too large (max %d)", maxLimit)
	}
	return nil
}

func validateOffset(offset int) error {
	if offset < 0 {
		return validationErrorf("OFFSET must be non-negative")
	}
	if offset > maxOffset {
		return validationErrorf("OFFSET too large (max %d)", maxOffset)
	}
	return nil
}

func joinSorted[V any](set map[string]V) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
