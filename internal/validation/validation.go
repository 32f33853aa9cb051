package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields the way they appear on the wire: Name -> name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToLower(f.Name[:1]) + f.Name[1:]
	})

	return v
}

// Struct validates s against its `validate` tags and returns a single error
// listing every failed field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}

	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: this value should not be blank", field)
	case "max":
		return fmt.Sprintf("%s: this value is too long (max %s)", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s: must be exactly %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: this value is too short (min %s)", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s: this value is not a valid email address", field)
	}

	return fmt.Sprintf("%s: failed %s validation", field, fe.Tag())
}
