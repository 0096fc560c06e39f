package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Flag es un booleano de entorno que solo acepta "true" o "false".
type Flag bool

func (f *Flag) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "true":
		*f = true
	case "false":
		*f = false
	default:
		return fmt.Errorf("must be \"true\" or \"false\", got %q", string(text))
	}
	return nil
}

func (f Flag) Bool() bool {
	return bool(f)
}

// FieldIssue describe un problema puntual en una variable de entorno.
type FieldIssue struct {
	Path    string
	Message string
}

// ValidationError agrupa todos los problemas encontrados al validar el entorno.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "invalid environment configuration: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(envKey)
	return v
}

// envKey devuelve el nombre de la variable asociada al campo.
func envKey(field reflect.StructField) string {
	key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
	if key == "" {
		return field.Name
	}
	return key
}

// parseIssues traduce los errores de env y devuelve las variables que no se
// pudieron convertir, para no reportarlas dos veces.
func parseIssues(err error, target any) ([]FieldIssue, map[string]bool) {
	failed := make(map[string]bool)
	if err == nil {
		return nil, failed
	}

	errs := []error{err}
	var agg env.AggregateError
	if errors.As(err, &agg) {
		errs = agg.Errors
	}

	keys := fieldKeys(reflect.TypeOf(target).Elem())
	issues := make([]FieldIssue, 0, len(errs))
	for _, e := range errs {
		var parseErr env.ParseError
		if errors.As(e, &parseErr) {
			key := keys[parseErr.Name]
			if key == "" {
				key = parseErr.Name
			}
			failed[key] = true
			issues = append(issues, FieldIssue{Path: key, Message: parseMessage(parseErr)})
			continue
		}
		issues = append(issues, FieldIssue{Path: "env", Message: e.Error()})
	}
	return issues, failed
}

func parseMessage(err env.ParseError) string {
	if err.Type != nil {
		switch err.Type.Kind() {
		case reflect.Int, reflect.Int64, reflect.Int32:
			return "must be an integer"
		}
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return "could not be parsed"
}

// fieldKeys mapea nombre de campo a variable de entorno, incluyendo los
// campos de structs embebidos.
func fieldKeys(t reflect.Type) map[string]string {
	keys := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			for name, key := range fieldKeys(field.Type) {
				keys[name] = key
			}
			continue
		}
		keys[field.Name] = envKey(field)
	}
	return keys
}

func validateIssues(target any, skip map[string]bool) []FieldIssue {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldIssue{{Path: "env", Message: err.Error()}}
	}
	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		if skip[fe.Field()] {
			continue
		}
		issues = append(issues, FieldIssue{Path: fe.Field(), Message: ruleMessage(fe)})
	}
	return issues
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}
