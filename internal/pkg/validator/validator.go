package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Transfer type validation
	validate.RegisterValidation("transfer_type", func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		validTypes := []string{"gift", "payment", "loan", "deal"}
		for _, v := range validTypes {
			if t == v {
				return true
			}
		}
		return false
	})

	// Actor validation
	validate.RegisterValidation("action_by", func(fl validator.FieldLevel) bool {
		a := fl.Field().String()
		validActors := []string{"system", "parent", "child"}
		for _, v := range validActors {
			if a == v {
				return true
			}
		}
		return false
	})

	// Streak type validation
	validate.RegisterValidation("streak_type", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		validTypes := []string{"room", "study", "sport", "strong_week"}
		for _, v := range validTypes {
			if s == v {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "transfer_type":
			errors[field] = "Invalid transfer type. Must be: gift, payment, loan, or deal"
		case "action_by":
			errors[field] = "Invalid actor. Must be: system, parent, or child"
		case "streak_type":
			errors[field] = "Invalid streak type. Must be: room, study, sport, or strong_week"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
