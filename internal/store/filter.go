package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Filter is an aggregate filter: a JSON object mapping field names to either
// a literal (equality) or an operator object such as {"$gte": 3}. "$and" and
// "$or" take lists of filters. The API passes it through unmodified; only the
// datastore interprets it.
type Filter map[string]any

// ParseFilter decodes the raw "aggregate" query value. An empty value yields
// a nil filter that matches every record. Numbers are kept as json.Number.
func ParseFilter(raw string) (Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var f Filter
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after filter object", ErrMalformedFilter)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: filter must be a JSON object", ErrMalformedFilter)
	}
	return f, nil
}
