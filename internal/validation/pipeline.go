package validation

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

const inputKey = "validation.input"

// Input is the request data a rule list was evaluated against.
type Input struct {
	body   map[string]any
	params map[string]string
}

// NewInput builds an Input from an already decoded body and route params.
func NewInput(body map[string]any, params map[string]string) Input {
	if body == nil {
		body = map[string]any{}
	}
	if params == nil {
		params = map[string]string{}
	}
	return Input{body: body, params: params}
}

// Raw returns the undecoded value of a field and whether it was present.
func (in Input) Raw(loc Location, field string) (any, bool) {
	switch loc {
	case LocationBody:
		v, ok := in.body[field]
		return v, ok
	case LocationParams:
		v, ok := in.params[field]
		return v, ok
	}
	return nil, false
}

// String returns a body field as a string.
func (in Input) String(field string) string {
	return cast.ToString(in.body[field])
}

// Float returns a body field as a float64.
func (in Input) Float(field string) (float64, error) {
	return cast.ToFloat64E(in.body[field])
}

// Bool returns a body field as a bool.
func (in Input) Bool(field string) (bool, error) {
	return cast.ToBoolE(in.body[field])
}

// ID returns a route parameter as an unsigned id.
func (in Input) ID(param string) (uint, error) {
	v, err := strconv.ParseUint(in.params[param], 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %w", param, err)
	}
	return uint(v), nil
}

// Pipeline returns a middleware that evaluates rules and answers 400 with the
// full error bag when any of them fails. On success the Input is stored for
// the next handler, see InputFrom.
func Pipeline(rules ...Rule) fiber.Handler {
	var needsBody bool
	var paramNames []string
	for _, r := range rules {
		switch r.Location {
		case LocationBody:
			needsBody = true
		case LocationParams:
			paramNames = append(paramNames, r.Field)
		}
	}

	return func(c *fiber.Ctx) error {
		var body map[string]any
		if needsBody {
			var err error
			body, err = decodeBody(c)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"errors": []FieldError{{
						Type:     "field",
						Msg:      "El cuerpo de la petición no es un JSON válido",
						Path:     "",
						Location: LocationBody,
					}},
				})
			}
		}

		params := make(map[string]string, len(paramNames))
		for _, name := range paramNames {
			params[name] = c.Params(name)
		}

		input := NewInput(body, params)
		if errs := Evaluate(input, rules); len(errs) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": errs,
			})
		}

		c.Locals(inputKey, input)
		return c.Next()
	}
}

// InputFrom returns the Input stored by Pipeline. It is empty when no
// pipeline ran for the request.
func InputFrom(c *fiber.Ctx) Input {
	if in, ok := c.Locals(inputKey).(Input); ok {
		return in
	}
	return NewInput(nil, nil)
}

func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	raw := bytes.TrimSpace(c.Body())
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var body map[string]any
	if err := c.App().Config().JSONDecoder(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		// a literal null body
		body = map[string]any{}
	}
	return body, nil
}
