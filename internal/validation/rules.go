// Package validation evaluates ordered rule lists against request input
// before a handler runs.
package validation

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Location is the part of the request a rule reads from.
type Location string

const (
	LocationBody   Location = "body"
	LocationParams Location = "params"
)

var validate = validator.New()

// Rule checks one field and carries the message reported when the check fails.
type Rule struct {
	Location Location
	Field    string
	Message  string
	check    func(raw string) bool
}

// Passes reports whether raw satisfies the rule.
func (r Rule) Passes(raw string) bool {
	return r.check(raw)
}

// FieldError is a single entry of the error bag returned to the client.
type FieldError struct {
	Type     string   `json:"type"`
	Value    any      `json:"value,omitempty"`
	Msg      string   `json:"msg"`
	Path     string   `json:"path"`
	Location Location `json:"location"`
}

// Field starts a rule on a named field.
type Field struct {
	location Location
	name     string
}

// Body selects a field of the JSON body.
func Body(name string) Field {
	return Field{location: LocationBody, name: name}
}

// Param selects a route parameter.
func Param(name string) Field {
	return Field{location: LocationParams, name: name}
}

func (f Field) rule(msg string, check func(string) bool) Rule {
	return Rule{Location: f.location, Field: f.name, Message: msg, check: check}
}

// NotEmpty fails for a missing field, null or the empty string.
func (f Field) NotEmpty(msg string) Rule {
	return f.rule(msg, tag("required"))
}

// IsNumeric fails unless the value is a decimal number.
func (f Field) IsNumeric(msg string) Rule {
	return f.rule(msg, tag("numeric"))
}

// GreaterThan fails unless the value parses as a float strictly above n.
func (f Field) GreaterThan(n float64, msg string) Rule {
	gt := "gt=" + strconv.FormatFloat(n, 'f', -1, 64)
	return f.rule(msg, func(raw string) bool {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		return validate.Var(v, gt) == nil
	})
}

// IsBoolean fails unless the value is one of the boolean literals.
func (f Field) IsBoolean(msg string) Rule {
	return f.rule(msg, tag("boolean"))
}

// IsPositiveInt fails unless the value is an integer of at least 1.
func (f Field) IsPositiveInt(msg string) Rule {
	return f.rule(msg, func(raw string) bool {
		if validate.Var(raw, "required,number") != nil {
			return false
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return false
		}
		return validate.Var(v, "gt=0") == nil
	})
}

func tag(t string) func(string) bool {
	return func(raw string) bool {
		return validate.Var(raw, t) == nil
	}
}

// Evaluate runs every rule against input and returns the failures in rule order.
// It never stops at the first failure.
func Evaluate(input Input, rules []Rule) []FieldError {
	var errs []FieldError
	for _, r := range rules {
		value, ok := input.Raw(r.Location, r.Field)
		if r.Passes(normalize(value)) {
			continue
		}
		fe := FieldError{
			Type:     "field",
			Msg:      r.Message,
			Path:     r.Field,
			Location: r.Location,
		}
		if ok {
			fe.Value = value
		}
		errs = append(errs, fe)
	}
	return errs
}

// normalize turns a decoded JSON value into the string the predicates see.
// Missing values and null become "".
func normalize(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return cast.ToString(v)
	}
}
