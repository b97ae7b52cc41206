package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	gstinPattern   = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{13}$`)
	controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateGSTIN checks the shape of a 15 character GST identification
// number: a two digit state code followed by uppercase alphanumerics.
// The checksum character is not verified.
func ValidateGSTIN(gstin string) error {
	if !gstinPattern.MatchString(gstin) {
		return fmt.Errorf("invalid GSTIN format: %q", gstin)
	}
	state, _ := strconv.Atoi(gstin[:2])
	if state < 1 || state > 38 {
		return fmt.Errorf("invalid GSTIN state code: %s", gstin[:2])
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlPattern.ReplaceAllString(s, ""))
}
