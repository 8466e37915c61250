package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateOutput, OutputConfig{})
	return v
}

func validateOutput(sl validator.StructLevel) {
	out := sl.Current().Interface().(OutputConfig)
	if !out.Text && !out.Binary {
		sl.ReportError(out.Binary, "Binary", "binary", "anyexport", "")
	}
	if out.UsesSink(SinkHTTP) && out.UploadURL == "" {
		sl.ReportError(out.UploadURL, "UploadURL", "upload_url", "required_for_http", "")
	}
}

// Validate checks the config for values the pipeline cannot run with.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s is not a URL: %q", field, fe.Value())
	case "anyexport":
		return "output enables neither text nor binary export"
	case "required_for_http":
		return "output.upload_url is required by the http sink"
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
