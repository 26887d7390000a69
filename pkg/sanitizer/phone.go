package sanitizer

import "strings"

// NormalizePhone strips formatting characters from a phone number,
// keeping digits and a single leading plus. The result is suitable for
// e164 validation; it is not itself a validity check.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	var result strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == '+' && i == 0:
			result.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting noise
		default:
			// keep unexpected runes so validation rejects them
			result.WriteRune(r)
		}
	}

	return result.String()
}
