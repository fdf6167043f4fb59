package validator

import (
	"context"
	"errors"

	"github.com/go-playground/validator"

	"github.com/sticonf/registration/internal/model"
)

var global *validator.Validate

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("registrant_type", validateRegistrantType)
	_ = v.RegisterValidation("sector", validateSector)
	_ = v.RegisterValidation("gov_level", validateGovLevel)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func validateRegistrantType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.TypeIndividual, model.TypeOrganization, model.TypeGovernment:
		return true
	}
	return false
}

func validateSector(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.SectorEducation, model.SectorProfessionalBodies, model.SectorProductCompany:
		return true
	}
	return false
}

func validateGovLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.GovLevelState, model.GovLevelFederal:
		return true
	}
	return false
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "registrant_type":
		msg = "Unknown registrant type"
	case "sector":
		msg = "Unknown sector"
	case "gov_level":
		msg = "Unknown government level"
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
