package loyalty

import "strings"

// NormalizePhone reduces a phone number to its 10-digit subscriber form so
// records from different tables join on the same key. It strips formatting
// characters and the 91 country prefix (with or without a leading trunk
// digit). Normalization is idempotent: a 10-digit input comes back as-is.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 13 && strings.HasPrefix(digits, "91"):
		return digits[3:]
	case len(digits) == 10:
		return digits
	case len(digits) > 10:
		return digits[len(digits)-10:]
	default:
		return digits
	}
}
