package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// OrderKey is one column of an ORDER BY clause.
type OrderKey struct {
	Column string
	Desc   bool
}

func (k OrderKey) String() string {
	if k.Desc {
		return k.Column + " DESC"
	}
	return k.Column + " ASC"
}

// Select builds a parameterized SELECT with keyset pagination.
// Conditions use "?" placeholders which are rendered as $1, $2, ... in order.
type Select struct {
	builder sq.SelectBuilder
	order   []OrderKey
}

// NewSelect starts a query selecting columns from the given FROM clause.
func NewSelect(columns string, from string) *Select {
	return &Select{builder: psql.Select(columns).From(from)}
}

// Where adds a condition. All conditions are joined with AND.
func (s *Select) Where(condition string, args ...interface{}) *Select {
	if strings.Count(condition, "?") != len(args) {
		panic(fmt.Sprintf("query: condition %q expects %d arguments, got %d", condition, strings.Count(condition, "?"), len(args)))
	}
	s.builder = s.builder.Where(condition, args...)
	return s
}

// OrderBy sets the sort keys. Call it once, before After. The last key must
// be unique for keyset pagination to be stable.
func (s *Select) OrderBy(keys ...OrderKey) *Select {
	s.order = keys
	clauses := make([]string, len(keys))
	for i, key := range keys {
		clauses[i] = key.String()
	}
	s.builder = s.builder.OrderBy(clauses...)
	return s
}

// After restricts the result to rows sorting strictly after values, one
// value per order key. Mixed directions are expanded into
// (k1 > v1) OR (k1 = v1 AND k2 > v2) OR ...
func (s *Select) After(values ...interface{}) *Select {
	if len(values) != len(s.order) {
		panic(fmt.Sprintf("query: keyset needs %d values, got %d", len(s.order), len(values)))
	}

	// sq.Eq and sq.Gt expand arrays such as uuid.UUID into IN lists, so the
	// comparisons are plain expressions
	disjuncts := sq.Or{}
	for i, key := range s.order {
		conjuncts := sq.And{}
		for j := 0; j < i; j++ {
			conjuncts = append(conjuncts, sq.Expr(s.order[j].Column+" = ?", values[j]))
		}
		op := " > ?"
		if key.Desc {
			op = " < ?"
		}
		conjuncts = append(conjuncts, sq.Expr(key.Column+op, values[i]))
		disjuncts = append(disjuncts, conjuncts)
	}

	s.builder = s.builder.Where(disjuncts)
	return s
}

// Limit caps the number of returned rows. Zero means no limit.
func (s *Select) Limit(n int) *Select {
	if n > 0 {
		s.builder = s.builder.Limit(uint64(n))
	}
	return s
}

// SQL renders the statement and its arguments.
func (s *Select) SQL() (string, []interface{}, error) {
	statement, args, err := s.builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build select: %w", err)
	}
	return statement, args, nil
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

// Contains returns the ILIKE pattern matching s anywhere.
func Contains(s string) string {
	return "%" + EscapeLike(s) + "%"
}
