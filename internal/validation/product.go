// Package validation checks catalog payloads before they reach the store.
//
// A payload is validated either in Full mode (create: every required field
// must be present) or in Partial mode (update: any subset of fields). The
// validator never fails on malformed input; it always answers with either a
// normalized ProductInput or a list of field errors.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"catalog/internal/models"
)

// Mode selects which rule set applies.
type Mode int

const (
	// Full validates a complete record, used on create.
	Full Mode = iota
	// Partial validates only the supplied fields, used on update.
	Partial
)

func (m Mode) String() string {
	if m == Partial {
		return "partial"
	}
	return "full"
}

// BodyField is the field path reported when the payload itself is unusable.
const BodyField = "body"

// FieldError describes one violated field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ProductInput is a sanitized product payload. Nil fields were not supplied.
type ProductInput struct {
	Name        *string               `json:"name,omitempty" create:"required,min=2" update:"omitnil,min=2"`
	Description *string               `json:"description,omitempty" create:"required,min=3" update:"omitnil,min=3"`
	Price       *decimal.Decimal      `json:"price,omitempty" create:"required,gt=0,lte=99999999.99" update:"omitnil,gt=0,lte=99999999.99"`
	ImageURL    *string               `json:"imageUrl,omitempty" create:"omitnil,url" update:"omitnil,url"`
	Category    *string               `json:"category,omitempty" create:"required,min=2" update:"omitnil,min=2"`
	Stock       *int64                `json:"stock,omitempty" create:"omitnil,gte=0" update:"omitnil,gte=0"`
	Status      *models.ProductStatus `json:"status,omitempty" create:"omitnil,oneof=available unavailable" update:"omitnil,oneof=available unavailable"`
}

// ApplyTo copies every supplied field onto p. Fields left nil keep the value
// p already holds.
func (in *ProductInput) ApplyTo(p *models.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ImageURL != nil {
		url := *in.ImageURL
		p.ImageURL = &url
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

// fieldOrder is the order in which field errors are reported.
var fieldOrder = []string{"name", "description", "price", "imageUrl", "category", "stock", "status"}

// ProductValidator validates product payloads. It is safe for concurrent use.
type ProductValidator struct {
	create *validator.Validate
	update *validator.Validate
}

// NewProductValidator creates a ProductValidator.
func NewProductValidator() *ProductValidator {
	return &ProductValidator{
		create: newValidate("create"),
		update: newValidate("update"),
	}
}

func newValidate(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate decodes body and checks it against the rules of mode. On success
// the normalized input is returned and the error list is nil.
func (v *ProductValidator) Validate(body []byte, mode Mode) (*ProductInput, []FieldError) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, []FieldError{{Field: BodyField, Reason: err.Error()}}
	}

	input, problems := coerce(raw)

	validate := v.create
	if mode == Partial {
		validate = v.update
	}
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, []FieldError{{Field: BodyField, Reason: "payload could not be validated"}}
		}
		for _, fe := range fieldErrs {
			// A type error already explains why the field is unusable.
			if _, seen := problems[fe.Field()]; seen {
				continue
			}
			problems[fe.Field()] = describe(fe)
		}
	}

	if len(problems) > 0 {
		return nil, ordered(problems)
	}

	if mode == Full {
		applyDefaults(input)
	}
	return input, nil
}

func applyDefaults(in *ProductInput) {
	if in.Stock == nil {
		var zero int64
		in.Stock = &zero
	}
	if in.Status == nil {
		status := models.StatusAvailable
		in.Status = &status
	}
}

var (
	errNotObject = errors.New("payload must be a JSON object")
	errMalformed = errors.New("payload is not valid JSON")
)

func decodeObject(body []byte) (map[string]interface{}, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errNotObject
		}
		return nil, errMalformed
	}
	if raw == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errMalformed
	}
	return raw, nil
}

// coerce maps the raw JSON object onto a ProductInput, converting numeric
// strings for price and stock. Values of the wrong JSON type are reported and
// left nil.
func coerce(raw map[string]interface{}) (*ProductInput, map[string]string) {
	in := &ProductInput{}
	problems := make(map[string]string)

	stringField := func(name string, dst **string) {
		val, ok := raw[name]
		if !ok {
			return
		}
		s, ok := val.(string)
		if !ok {
			problems[name] = fmt.Sprintf("%s must be a string", name)
			return
		}
		*dst = &s
	}

	stringField("name", &in.Name)
	stringField("description", &in.Description)
	stringField("imageUrl", &in.ImageURL)
	stringField("category", &in.Category)

	if val, ok := raw["status"]; ok {
		if s, isString := val.(string); isString {
			status := models.ProductStatus(s)
			in.Status = &status
		} else {
			problems["status"] = "status must be a string"
		}
	}

	if val, ok := raw["price"]; ok {
		d, err := toDecimal(val)
		switch {
		case errors.Is(err, errOutOfRange):
			problems["price"] = "price is out of range"
		case err != nil:
			problems["price"] = "price must be a number"
		default:
			// The column holds two decimal places.
			price := d.Round(2)
			in.Price = &price
		}
	}

	if val, ok := raw["stock"]; ok {
		d, err := toDecimal(val)
		switch {
		case errors.Is(err, errOutOfRange):
			problems["stock"] = "stock is out of range"
		case err != nil:
			problems["stock"] = "stock must be a number"
		case !d.IsInteger():
			problems["stock"] = "stock must be a whole number"
		case !d.BigInt().IsInt64():
			problems["stock"] = "stock is out of range"
		default:
			stock := d.IntPart()
			in.Stock = &stock
		}
	}

	return in, problems
}

// Bounds on numeric input, checked before any rescaling.
const (
	maxNumberLength  = 64
	maxIntegerDigits = 19
	maxScale         = 32
)

var errOutOfRange = errors.New("number out of range")

func toDecimal(val interface{}) (decimal.Decimal, error) {
	var s string
	switch v := val.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
		if s == "" {
			return decimal.Decimal{}, errors.New("empty number")
		}
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected type %T", val)
	}
	if len(s) > maxNumberLength {
		return decimal.Decimal{}, errOutOfRange
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.NumDigits()+int(d.Exponent()) > maxIntegerDigits || d.Exponent() < -maxScale {
		return decimal.Decimal{}, errOutOfRange
	}
	return d, nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive number", field)
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	case "lte":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s failed the %s rule", field, fe.Tag())
	}
}

func ordered(problems map[string]string) []FieldError {
	out := make([]FieldError, 0, len(problems))
	for _, name := range fieldOrder {
		if reason, ok := problems[name]; ok {
			out = append(out, FieldError{Field: name, Reason: reason})
		}
	}
	return out
}
