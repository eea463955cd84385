package postgres

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/phrazzld/ensemble-api/internal/store"
)

// comparison operators accepted inside a field's operator object
var comparisons = map[string]string{
	"$eq":  "=",
	"$ne":  "<>",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

// whereBuilder translates a store.Filter into a parameterized WHERE clause.
// Placeholders are numbered from 1 in the order arguments are appended.
type whereBuilder struct {
	columns map[string]bool
	args    []any
}

func newWhereBuilder(columns []string) *whereBuilder {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return &whereBuilder{columns: set}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrMalformedFilter, fmt.Sprintf(format, args...))
}

// where returns the clause (without the WHERE keyword) and its arguments.
// A nil or empty filter yields an empty clause.
func (b *whereBuilder) where(f store.Filter) (string, []any, error) {
	clause, err := b.object(f)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

func (b *whereBuilder) placeholder(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// object ANDs together the conditions of one filter object. Keys are
// visited in sorted order so the generated SQL is deterministic.
func (b *whereBuilder) object(f map[string]any) (string, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var (
			part string
			err  error
		)
		switch {
		case key == "$and" || key == "$or":
			part, err = b.logical(key, f[key])
		case strings.HasPrefix(key, "$"):
			err = malformed("unknown operator %q", key)
		case !b.columns[key]:
			err = malformed("unknown field %q", key)
		default:
			part, err = b.field(key, f[key])
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *whereBuilder) logical(op string, raw any) (string, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return "", malformed("%s expects a non-empty list of filters", op)
	}

	joiner := " AND "
	if op == "$or" {
		joiner = " OR "
	}

	parts := make([]string, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return "", malformed("%s expects a list of filter objects", op)
		}
		part, err := b.object(obj)
		if err != nil {
			return "", err
		}
		if part == "" {
			part = "TRUE"
		}
		parts = append(parts, "("+part+")")
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func (b *whereBuilder) field(column string, raw any) (string, error) {
	ops, isObject := raw.(map[string]any)
	if !isObject {
		return b.compare(column, "$eq", raw)
	}
	if len(ops) == 0 {
		return "", malformed("empty operator object for %q", column)
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, op := range names {
		part, err := b.compare(column, op, ops[op])
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *whereBuilder) compare(column, op string, raw any) (string, error) {
	switch op {
	case "$in":
		list, ok := raw.([]any)
		if !ok {
			return "", malformed("$in on %q expects a list", column)
		}
		if len(list) == 0 {
			return "FALSE", nil
		}
		holders := make([]string, len(list))
		for i, item := range list {
			v, err := scalar(column, item)
			if err != nil {
				return "", err
			}
			holders[i] = b.placeholder(v)
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(holders, ", ")), nil

	case "$like":
		pattern, ok := raw.(string)
		if !ok {
			return "", malformed("$like on %q expects a string", column)
		}
		return fmt.Sprintf("%s ILIKE %s", column, b.placeholder(pattern)), nil
	}

	sqlOp, known := comparisons[op]
	if !known {
		return "", malformed("unknown operator %q on %q", op, column)
	}

	if raw == nil {
		switch op {
		case "$eq":
			return column + " IS NULL", nil
		case "$ne":
			return column + " IS NOT NULL", nil
		default:
			return "", malformed("%s on %q cannot compare with null", op, column)
		}
	}

	v, err := scalar(column, raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", column, sqlOp, b.placeholder(v)), nil
}

// scalar converts a decoded JSON literal into a driver argument.
func scalar(column string, raw any) (any, error) {
	switch v := raw.(type) {
	case string, bool, int, int64, float64:
		return v, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, malformed("invalid number for %q", column)
		}
		return f, nil
	default:
		return nil, malformed("unsupported value for %q", column)
	}
}
