// Package validation maps go-playground/validator failures to field messages
// keyed by JSON name, for both gin binding and direct service calls.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

// Register makes v report JSON field names. Call it on gin's engine too.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Struct validates s using its binding tags
func Struct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate converts validator errors into a Validation apperror. An
// apperror is returned unchanged, other errors become a generic Validation error.
func Translate(err error) *apperror.Error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("Los datos enviados no son válidos")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		fields[key] = append(fields[key], message(fe))
	}
	return apperror.ValidationFields("Los datos enviados no son válidos", fields)
}

// fieldKey drops the struct name from the namespace, e.g. "PedidoInput.items[0].nombre" -> "items[0].nombre"
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "email":
		return "debe ser un correo válido"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("debe tener al menos %s elementos", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser al menos %s", fe.Param())
	case "max":
		return fmt.Sprintf("no puede superar %s", fe.Param())
	case "datetime":
		return "la fecha debe tener el formato AAAA-MM-DD"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	}
	return "no es válido"
}
