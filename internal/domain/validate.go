package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	lettersOnly = regexp.MustCompile(`^[A-Za-z]+$`)
	tenDigits   = regexp.MustCompile(`^\d{10}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "letters", func(fl validator.FieldLevel) bool {
		return lettersOnly.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
		return tenDigits.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

var tagMessages = map[string]string{
	"nonblank": "is required",
	"letters":  "only letters are allowed",
	"email":    "invalid email format",
	"phone10":  "phone number must be 10 digits",
}

// CustomerProblems lists every rule the customer fields break, in field order.
func CustomerProblems(f CustomerFields) []*ValidationError {
	return problems(validate.Struct(f))
}

// ValidateCustomer returns the first broken rule as a *ValidationError.
func ValidateCustomer(f CustomerFields) error {
	return first(CustomerProblems(f))
}

// AddressProblems lists the required address fields that are missing.
func AddressProblems(a Address) []*ValidationError {
	return problems(validate.Struct(a))
}

// ValidateAddress checks the fields required on a new address.
func ValidateAddress(a Address) error {
	return first(AddressProblems(a))
}

// ValidateAddressPatch rejects patches that blank out a required field.
func ValidateAddressPatch(p AddressPatch) error {
	return first(problems(validate.Struct(p)))
}

func problems(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []*ValidationError{{Message: err.Error()}}
	}
	out := make([]*ValidationError, 0, len(fieldErrs))
	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out = append(out, &ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}

func first(list []*ValidationError) error {
	if len(list) == 0 {
		return nil
	}
	return list[0]
}
