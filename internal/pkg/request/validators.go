package request

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var clockRegex = regexp.MustCompile(`^\s*\d{2}:\d{2}(:\d{2})?\s*$`)

// RegisterValidators installs the custom tags used by request DTOs on gin's validator:
//
//	isodate  YYYY-MM-DD calendar date
//	clock    HH:MM or HH:MM:SS wall-clock time
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		return fmt.Errorf("register isodate: %w", err)
	}
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return fmt.Errorf("register clock: %w", err)
	}
	return nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}
