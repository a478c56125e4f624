package validation

import (
	"blog-api/models"
)

// ValidatePostPayload checks that a post payload carries every required
// field. Empty strings are accepted. Content is stored verbatim; nothing is
// trimmed or sanitized.
func ValidatePostPayload(payload models.PostPayload) error {
	if errs := structErrors(payload); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
