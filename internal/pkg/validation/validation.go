package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/request"
)

// Register installs the custom tags used by request DTOs on gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(fieldName)
	return v.RegisterValidation("naive_datetime", func(fl validator.FieldLevel) bool {
		_, err := request.ParseNaiveTime(fl.Field().String())
		return err == nil
	})
}

// fieldName reports fields by their json or form name so messages match the payload.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Messages flattens validator errors into a field -> message map.
// It returns nil when err is not a validation error.
func Messages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Minimum value is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum value is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "naive_datetime":
		return "Must be a datetime like 2024-01-10T10:00:00"
	case "datetime":
		return fmt.Sprintf("Must match layout %s", fe.Param())
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}
