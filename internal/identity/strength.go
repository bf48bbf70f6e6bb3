package identity

import "unicode"

// PasswordStrength scores secret from 0 to 6: one point each for length >= 8,
// length >= 12, a lowercase letter, an uppercase letter, a digit and a symbol.
func PasswordStrength(secret string) int {
	score := 0
	if len(secret) >= 8 {
		score++
	}
	if len(secret) >= 12 {
		score++
	}

	var lower, upper, digit, other bool
	for _, r := range secret {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		default:
			other = true
		}
	}
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			score++
		}
	}
	return score
}

// StrengthLabel maps a PasswordStrength score to Weak, Medium or Strong.
func StrengthLabel(score int) string {
	switch {
	case score <= 2:
		return "Weak"
	case score <= 4:
		return "Medium"
	default:
		return "Strong"
	}
}
