package app

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their form names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		return name
	})
	return v
}

// bindForm decodes the submitted form into dst and validates it. Validation
// failures are returned as messages keyed by form field name; a non-nil error
// means the request itself could not be handled.
func bindForm(c echo.Context, dst any) (map[string]string, error) {
	binder := &echo.DefaultBinder{}
	if err := binder.BindBody(c, dst); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed form").WithInternal(err)
	}

	err := validate.Struct(dst)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make(map[string]string, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			msgs[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return msgs, nil
	}
	return nil, err
}

func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	default:
		return "is invalid"
	}
}
