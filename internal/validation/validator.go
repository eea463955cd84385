package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"
	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/locale"
)

// ErrUnbound is returned by Validate before a locale has been bound.
var ErrUnbound = errors.New("validator has no bound locale")

// maxExactInteger is the largest magnitude a float64 holds without losing
// integer precision. Larger values fail the Integer rule.
const maxExactInteger = 1 << 53

// Mode selects how required rules are applied.
type Mode int

const (
	// Full requires every Required field (creates).
	Full Mode = iota
	// Partial skips Required so callers may send a subset of fields (updates).
	Partial
)

// Detail describes one failed rule.
type Detail struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports every rule a payload failed.
type ValidationError struct {
	Details []Detail
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

// Validator interprets schemas. It is safe for concurrent use; Bind may be
// called again to switch locales atomically.
type Validator struct {
	catalog *locale.Catalog
	checks  *validator.Validate
	trans   atomic.Pointer[ut.Translator]
}

// New creates an unbound Validator backed by catalog.
func New(catalog *locale.Catalog) *Validator {
	return &Validator{
		catalog: catalog,
		checks:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Bind resolves the locale's message table and makes it the active one.
func (v *Validator) Bind(name string) error {
	trans, err := v.catalog.Resolve(name)
	if err != nil {
		return fmt.Errorf("failed to bind validation locale: %w", err)
	}
	v.trans.Store(&trans)
	return nil
}

// Locale returns the bound locale, or "" when unbound.
func (v *Validator) Locale() string {
	t := v.trans.Load()
	if t == nil {
		return ""
	}
	return (*t).Locale()
}

// Validate checks payload against schema and returns a normalized copy:
// numbers decoded as json.Number or float64 become float64, or int64 for
// fields carrying the Integer rule. Details are sorted by field name.
func (v *Validator) Validate(payload map[string]any, schema Schema, mode Mode) (map[string]any, error) {
	tp := v.trans.Load()
	if tp == nil {
		return nil, ErrUnbound
	}
	trans := *tp

	var details []Detail
	fail := func(field string, rule Rule, key string, params ...string) {
		details = append(details, Detail{
			Field:   field,
			Rule:    rule.Name(),
			Message: locale.Message(trans, key, append([]string{field}, params...)...),
		})
	}

	out := make(map[string]any, len(payload))
	for name, raw := range payload {
		if _, ok := schema.field(name); !ok {
			details = append(details, Detail{
				Field:   name,
				Rule:    "unknown",
				Message: locale.Message(trans, locale.KeyUnknown, name),
			})
		} else {
			out[name] = raw
		}
	}

	for _, f := range schema.Fields {
		raw, present := out[f.Name]
		if !present || raw == nil {
			if hasRule(f, Required) && (mode == Full || present) {
				fail(f.Name, RequiredRule(), locale.KeyRequired)
			}
			continue
		}

		value, ok := coerce(raw, f.Type)
		if !ok {
			details = append(details, Detail{
				Field:   f.Name,
				Rule:    "type",
				Message: locale.Message(trans, locale.KeyType, f.Name, f.Type.String()),
			})
			continue
		}

		if s, isString := value.(string); isString && hasRule(f, Required) && strings.TrimSpace(s) == "" {
			fail(f.Name, RequiredRule(), locale.KeyRequired)
			continue
		}

		whole := false
		for _, rule := range f.Rules {
			if rule.Kind == Required {
				continue
			}
			if rule.Kind == Integer {
				n, isNum := value.(float64)
				if !isNum || n != math.Trunc(n) || math.Abs(n) > maxExactInteger {
					key, params := rule.message()
					fail(f.Name, rule, key, params...)
					break
				}
				whole = true
				continue
			}
			if err := v.checks.Var(value, rule.tag()); err != nil {
				key, params := rule.message()
				fail(f.Name, rule, key, params...)
				break
			}
		}
		if whole {
			value = int64(value.(float64))
		}
		out[f.Name] = value
	}

	if len(details) > 0 {
		sort.SliceStable(details, func(i, j int) bool { return details[i].Field < details[j].Field })
		return nil, &ValidationError{Details: details}
	}
	return out, nil
}

func hasRule(f Field, kind RuleKind) bool {
	for _, r := range f.Rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// coerce checks raw against the declared type and converts numeric values to
// float64. Numeric strings are accepted for Number fields so query
// parameters can be validated with the same schemas as bodies.
func coerce(raw any, t FieldType) (any, bool) {
	switch t {
	case String:
		s, ok := raw.(string)
		return s, ok
	case Boolean:
		b, ok := raw.(bool)
		return b, ok
	case Number:
		switch n := raw.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			return finite(n.Float64())
		case string:
			if strings.TrimSpace(n) == "" {
				return nil, false
			}
			return finite(json.Number(strings.TrimSpace(n)).Float64())
		}
	}
	return nil, false
}

func finite(f float64, err error) (any, bool) {
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}
