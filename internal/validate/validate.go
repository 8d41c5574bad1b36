// Package validate checks request structs against their `validate` tags and
// reports failures by JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingField = errors.New("required field is empty")
	ErrInvalidField = errors.New("field is invalid")
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error carries every failing field. It unwraps to ErrMissingField when any
// field failed "required", otherwise to ErrInvalidField.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	for _, f := range e.Fields {
		if f.Rule == "required" {
			return ErrMissingField
		}
	}
	return ErrInvalidField
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("maxbytes", maxBytes)
	})
	return v
}

// maxBytes bounds the encoded length; "max" counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// Struct validates out and returns *Error on failing tags.
func Struct(out interface{}) error {
	err := instance().Struct(out)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	rootType := baseStructType(out)
	fields := make([]FieldError, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		rule := fieldError.Tag()
		param := fieldError.Param()

		fields = append(fields, FieldError{
			Field:   jsonPath(rootType, fieldError),
			Rule:    rule,
			Param:   param,
			Message: message(rule, param),
		})
	}

	return &Error{Fields: fields}
}

// Required reports a single empty field the same way Struct does.
func Required(field string) error {
	return &Error{Fields: []FieldError{{Field: field, Rule: "required", Message: message("required", "")}}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// Namespace format is "<StructName>.<Field>[.<NestedField>...]".
func jsonPath(rootType reflect.Type, fieldError validator.FieldError) string {
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")
	if rootType != nil && len(parts) > 0 && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	current := rootType
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		name, index := part, ""
		if i := strings.Index(part, "["); i != -1 {
			name, index = part[:i], part[i:]
		}

		jsonName := name
		var next reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(name); ok {
				jsonName = jsonNameOf(sf)
				next = elemType(sf.Type)
			}
		}

		out = append(out, jsonName+index)
		current = next
	}

	if len(out) == 0 {
		return fieldError.Field()
	}

	return strings.Join(out, ".")
}

func jsonNameOf(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func elemType(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}
	return nil
}

func message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
