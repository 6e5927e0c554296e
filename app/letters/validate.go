package letters

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError lists every field that failed validation.
type InvalidInputError struct {
	Fields []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", strings.Join(e.Fields, "; "))
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func NewInvalidInput(fields ...string) *InvalidInputError {
	return &InvalidInputError{Fields: fields}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("letter_type", func(fl validator.FieldLevel) bool {
		return LetterType(fl.Field().String()).Valid()
	})
	return v
}

func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeFieldError(fe))
	}
	return NewInvalidInput(fields...)
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "Request.customer_info.name"; drop the struct name.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "letter_type":
		return fmt.Sprintf("invalid letter type: %v", fe.Value())
	case "email":
		return field + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
