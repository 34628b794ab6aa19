// Package validation holds input rules shared by handlers and services.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"kolboard/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with json field names and custom tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("e164phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
			return tickerRegex.MatchString(NormalizeSymbol(fl.Field().String()))
		})
		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return platformRegex.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and converts failures into a VALIDATION_ERROR AppError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Field()+": "+message(e))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "e164phone":
		return "must be an E.164 phone number like +14155552671"
	case "ticker":
		return "must be a stock ticker symbol"
	case "platform":
		return "must be a platform name"
	case "oneof":
		return "must be one of: " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "url":
		return "must be a URL"
	default:
		return "is invalid"
	}
}
