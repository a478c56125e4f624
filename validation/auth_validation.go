package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"blog-api/models"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents custom validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation errors: " + strings.Join(e.Errors, ", ")
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// structErrors runs the validator tags on v and flattens the failures.
func structErrors(v interface{}) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}

func ValidateUserData(user models.User) error {
	if errs := structErrors(user); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	var validationErrors []string
	if len(user.Password) < 8 {
		validationErrors = append(validationErrors, "password must be at least 8 characters long")
	}
	if !isComplexPassword(user.Password) {
		validationErrors = append(validationErrors, "password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}
	return nil
}

var (
	ErrPasswordTooShort   = errors.New("new password must be at least 8 characters long")
	ErrPasswordSameAsOld  = errors.New("new password must be different from the old password")
	ErrPasswordNotComplex = errors.New("new password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
)

// ValidatePasswordChange checks if the old and new passwords are valid
func ValidatePasswordChange(oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	if oldPassword == newPassword {
		return ErrPasswordSameAsOld
	}

	if !isComplexPassword(newPassword) {
		return ErrPasswordNotComplex
	}

	return nil
}

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[@$!%*?&]`)
)

func isComplexPassword(password string) bool {
	return lowercaseRegex.MatchString(password) &&
		uppercaseRegex.MatchString(password) &&
		digitRegex.MatchString(password) &&
		specialRegex.MatchString(password)
}
