package validation

import (
	"fmt"
	"regexp"
	"strings"

	"kolboard/internal/models"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	tickerRegex   = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)
	platformRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,19}$`)
	kolIDRegex    = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)
)

// IsValidPhone reports whether s is an E.164 number. The empty string clears the phone and is valid.
func IsValidPhone(s string) bool {
	return s == "" || phoneRegex.MatchString(s)
}

// ValidatePhone returns a validation error for non-empty, non-E.164 input.
func ValidatePhone(s string) error {
	if !IsValidPhone(s) {
		return models.NewValidationError("phone must be an E.164 phone number like +14155552671")
	}
	return nil
}

// ValidateAvatar rejects files of maxBytes or more and non-image MIME types.
func ValidateAvatar(size int64, contentType string, maxBytes int64) error {
	if size <= 0 {
		return models.NewValidationError("avatar file is empty")
	}
	if size >= maxBytes {
		return models.NewValidationError(fmt.Sprintf("avatar must be smaller than %d MB", maxBytes/(1024*1024)))
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return models.NewValidationError("avatar must be an image")
	}
	return nil
}

// NormalizeSymbol upper-cases a ticker and strips a leading cashtag.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "$"))
}

// ValidateSymbol normalizes and checks a ticker symbol.
func ValidateSymbol(s string) (string, error) {
	symbol := NormalizeSymbol(s)
	if !tickerRegex.MatchString(symbol) {
		return "", models.NewValidationError(fmt.Sprintf("invalid stock symbol %q", s))
	}
	return symbol, nil
}

// ValidateKOLRef normalizes and checks a platform-qualified KOL reference.
func ValidateKOLRef(platform, kolID string) (string, string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	kolID = strings.TrimSpace(kolID)
	if !platformRegex.MatchString(platform) {
		return "", "", models.NewValidationError(fmt.Sprintf("invalid platform %q", platform))
	}
	if !kolIDRegex.MatchString(kolID) {
		return "", "", models.NewValidationError(fmt.Sprintf("invalid KOL id %q", kolID))
	}
	return platform, kolID, nil
}
