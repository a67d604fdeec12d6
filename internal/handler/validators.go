package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	reISODateField  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reClockField    = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	reWeekdayField  = regexp.MustCompile(`(?i)^(sunday|monday|tuesday|wednesday|thursday|friday|saturday)$`)
)

// RegisterValidations installs the custom binding validators used by the
// request structs: isodate (YYYY-MM-DD), clocktime (HH:MM), weekday.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return reISODateField.MatchString(fl.Field().String())
	})
	v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return reClockField.MatchString(fl.Field().String())
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return reWeekdayField.MatchString(fl.Field().String())
	})
}
