// Package decode turns daemon payloads into Go values: whole JSON documents,
// line-delimited JSON progress streams and the multiplexed stdout/stderr
// framing used by the logs, attach and exec endpoints.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// JSON decodes data into a new T. Unknown fields are ignored; a field tagged
// validate:"required" that is absent (or zero) fails with a
// *apperrors.DecodeError naming it.
func JSON[T any](data []byte) (T, error) {
	var v T
	err := Into(data, &v)
	return v, err
}

// Into decodes data into v, which must be a pointer, and validates it.
func Into(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return unmarshalError(err)
	}
	return Validate(v)
}

func unmarshalError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &apperrors.DecodeError{Offset: syntaxErr.Offset, Err: err}
	case errors.As(err, &typeErr):
		return &apperrors.DecodeError{Field: typeErr.Field, Offset: typeErr.Offset, Err: err}
	}
	return &apperrors.DecodeError{Err: err}
}

// Validate checks the validate tags of v. Structs are checked directly;
// slices and arrays are checked element by element so the failing index is
// part of the reported field.
func Validate(v any) error {
	return validateValue(reflect.ValueOf(v), "")
}

func validateValue(rv reflect.Value, prefix string) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return validateStruct(rv, prefix)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i), fmt.Sprintf("%s[%d].", prefix, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateStruct(rv reflect.Value, prefix string) error {
	target := rv.Interface()
	if rv.CanAddr() {
		target = rv.Addr().Interface()
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &apperrors.DecodeError{Err: err}
	}

	fe := fieldErrs[0]
	// Namespace is "<Type>.<field>..."; the type name says nothing about the payload.
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	field = prefix + field

	if fe.Tag() == "required" {
		return &apperrors.DecodeError{Field: field, Err: fmt.Errorf("missing required field %q", field)}
	}
	return &apperrors.DecodeError{Field: field, Err: fmt.Errorf("field %q failed %q constraint", field, fe.Tag())}
}
