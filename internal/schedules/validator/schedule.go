package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"slotsync/pkg/logger"
	"slotsync/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("iso_date", validateISODate); err != nil {
		log.Fatal("Failed to register 'iso_date' validator", "error", err)
	}
	if err := v.RegisterValidation("hhmm_time", validateTimeOfDay); err != nil {
		log.Fatal("Failed to register 'hhmm_time' validator", "error", err)
	}
	if err := v.RegisterValidation("date_order", validateDateOrder); err != nil {
		log.Fatal("Failed to register 'date_order' validator", "error", err)
	}
	if err := v.RegisterValidation("time_order", validateTimeOrder); err != nil {
		log.Fatal("Failed to register 'time_order' validator", "error", err)
	}

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateISODate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return false
	}
	// time.Parse accepts "2024-6-03"; require the canonical zero-padded form
	// since availability keys are built from it.
	return parsed.Format("2006-01-02") == value
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return false
	}
	return parsed.Format("15:04") == value
}

// validateDateOrder runs on EndDate and checks it is not before StartDate.
// Unparseable values pass here; the iso_date tag reports them.
func validateDateOrder(fl validator.FieldLevel) bool {
	sc, ok := fl.Parent().Interface().(model.Schedule)
	if !ok {
		return true
	}

	start, err := time.Parse("2006-01-02", sc.StartDate)
	if err != nil {
		return true
	}
	end, err := time.Parse("2006-01-02", sc.EndDate)
	if err != nil {
		return true
	}

	return !end.Before(start)
}

// validateTimeOrder runs on DayEndTime and checks it is strictly after
// DayStartTime, so every day has a non-empty slot window.
func validateTimeOrder(fl validator.FieldLevel) bool {
	sc, ok := fl.Parent().Interface().(model.Schedule)
	if !ok {
		return true
	}

	start, err := time.Parse("15:04", sc.DayStartTime)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", sc.DayEndTime)
	if err != nil {
		return true
	}

	return end.After(start)
}

func (v *ScheduleValidator) Validate(sc *model.Schedule) error {
	if err := v.validate.Struct(*sc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param())
		case "numeric":
			message = fmt.Sprintf("%s must contain only digits", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		case "iso_date":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		case "hhmm_time":
			message = fmt.Sprintf("%s must be a time of day in HH:MM 24-hour format", err.Field())
		case "date_order":
			message = "end_date must not be before start_date"
		case "time_order":
			message = "day_end_time must be after day_start_time"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
