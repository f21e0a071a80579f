package service

import (
	"errors"

	"parcel-tracker/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// registration is checked field by field in declaration order, so the first
// failure reported is the one callers see.
type registration struct {
	Username string      `validate:"min=1,max=10"`
	Role     models.Role `validate:"eq=0"`
	Password string      `validate:"required"`
}

type credentials struct {
	Username string `validate:"min=1,max=10"`
	Password string `validate:"required"`
}

type shipment struct {
	Year  int `validate:"gte=1,lte=9999"`
	Month int `validate:"gte=1,lte=12"`
	Day   int `validate:"gte=1,lte=31"`
}

// validateInput runs the struct constraints of obj and maps the first failing
// field to its domain error.
func validateInput(obj any, fields map[string]error) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	for _, fe := range validationErrors {
		if mapped, ok := fields[fe.Field()]; ok {
			return mapped
		}
	}
	return err
}

var registrationFields = map[string]error{
	"Username": ErrInvalidUsername,
	"Role":     ErrAdminRegistrationForbidden,
	"Password": ErrInvalidPassword,
}

var credentialFields = map[string]error{
	"Username": ErrInvalidUsername,
	"Password": ErrInvalidPassword,
}

var shipmentFields = map[string]error{
	"Year":  ErrInvalidDate,
	"Month": ErrInvalidDate,
	"Day":   ErrInvalidDate,
}

func validateSendingDate(d models.Date) error {
	if err := validateInput(shipment{Year: d.Year, Month: d.Month, Day: d.Day}, shipmentFields); err != nil {
		return err
	}
	// Day-of-month against the actual calendar, e.g. 2023-02-29.
	if !d.Valid() {
		return ErrInvalidDate
	}
	return nil
}
