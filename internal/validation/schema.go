package validation

import (
	"strconv"
	"strings"

	"github.com/phrazzld/ensemble-api/internal/locale"
)

// FieldType is the JSON type a field must carry.
type FieldType int

const (
	String FieldType = iota
	Number
	Boolean
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// RuleKind tags a Rule variant.
type RuleKind int

const (
	Required RuleKind = iota
	MinLength
	MaxLength
	Min
	Max
	Integer
	Email
	URL
	UUID
	OneOf
)

// Rule is one constraint on a field. Only the members relevant to Kind are set.
type Rule struct {
	Kind    RuleKind
	N       int
	Bound   float64
	Choices []string
}

// Rule constructors.

func RequiredRule() Rule { return Rule{Kind: Required} }
func MinLengthRule(n int) Rule { return Rule{Kind: MinLength, N: n} }
func MaxLengthRule(n int) Rule { return Rule{Kind: MaxLength, N: n} }
func MinRule(v float64) Rule { return Rule{Kind: Min, Bound: v} }
func MaxRule(v float64) Rule { return Rule{Kind: Max, Bound: v} }
func IntegerRule() Rule { return Rule{Kind: Integer} }
func EmailRule() Rule { return Rule{Kind: Email} }
func URLRule() Rule { return Rule{Kind: URL} }
func UUIDRule() Rule { return Rule{Kind: UUID} }
func OneOfRule(c ...string) Rule { return Rule{Kind: OneOf, Choices: c} }

// Name is the rule name reported in error details.
func (r Rule) Name() string {
	switch r.Kind {
	case Required:
		return "required"
	case MinLength:
		return "minLength"
	case MaxLength:
		return "maxLength"
	case Min:
		return "min"
	case Max:
		return "max"
	case Integer:
		return "integer"
	case Email:
		return "email"
	case URL:
		return "url"
	case UUID:
		return "uuid"
	case OneOf:
		return "oneOf"
	default:
		return "unknown"
	}
}

// tag returns the go-playground/validator tag that performs the check.
// Required is handled before tags are evaluated and has none.
func (r Rule) tag() string {
	switch r.Kind {
	case MinLength:
		return "min=" + strconv.Itoa(r.N)
	case MaxLength:
		return "max=" + strconv.Itoa(r.N)
	case Min:
		return "gte=" + formatBound(r.Bound)
	case Max:
		return "lte=" + formatBound(r.Bound)
	case Email:
		return "email"
	case URL:
		return "url"
	case UUID:
		return "uuid"
	case OneOf:
		return "oneof=" + strings.Join(r.Choices, " ")
	default:
		return ""
	}
}

// message returns the catalog key and parameters describing a failure.
func (r Rule) message() (string, []string) {
	switch r.Kind {
	case Required:
		return locale.KeyRequired, nil
	case MinLength:
		return locale.KeyMinLength, []string{strconv.Itoa(r.N)}
	case MaxLength:
		return locale.KeyMaxLength, []string{strconv.Itoa(r.N)}
	case Min:
		return locale.KeyMin, []string{formatBound(r.Bound)}
	case Max:
		return locale.KeyMax, []string{formatBound(r.Bound)}
	case Integer:
		return locale.KeyInteger, nil
	case Email:
		return locale.KeyEmail, nil
	case URL:
		return locale.KeyURL, nil
	case UUID:
		return locale.KeyUUID, nil
	case OneOf:
		return locale.KeyOneOf, []string{strings.Join(r.Choices, ", ")}
	default:
		return locale.KeyType, nil
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Field declares one accepted payload field.
type Field struct {
	Name  string
	Type  FieldType
	Rules []Rule
}

// Schema declares the fields a payload may carry.
type Schema struct {
	Fields []Field
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
