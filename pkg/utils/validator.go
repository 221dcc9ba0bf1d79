package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateQuantity checks a unit-tagged amount offered or requested
func ValidateQuantity(amount float64, unit string) error {
	if amount <= 0 {
		return fmt.Errorf("quantity must be positive: %g", amount)
	}
	if strings.TrimSpace(unit) == "" {
		return fmt.Errorf("quantity unit is required")
	}
	return nil
}

// ValidateCoordinates checks a pickup point lies on the map
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %g", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude out of range: %g", lng)
	}
	return nil
}

// SanitizeString removes control characters from free text
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
