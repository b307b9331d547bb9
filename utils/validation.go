// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// CleanPhone strips spaces, dashes and parentheses.
func CleanPhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(phone)
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Allows + prefix followed by up to 15 digits
	return phoneRegex.MatchString(CleanPhone(phone))
}
