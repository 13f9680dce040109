package validator

import "regexp"

var (
	operationNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	// Confirmation tokens are 32 random bytes, unpadded base64url.
	tokenRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)
)

// ValidateOperationName accepts snake_case tool names
func ValidateOperationName(name string) bool {
	return operationNameRegex.MatchString(name)
}

// ValidateConfirmationToken checks the token shape only; existence is the
// store's business.
func ValidateConfirmationToken(token string) bool {
	return tokenRegex.MatchString(token)
}
