package auth

// PasswordScore rates a password from 0 to 4, one point each for length of
// at least 8, an upper-case letter, a lower-case letter, a digit and a
// symbol, capped at 4. The score is advisory; the identity service owns the
// real policy.
func PasswordScore(password string) int {
	if password == "" {
		return 0
	}

	var upper, lower, digit, symbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	score := 0
	for _, ok := range []bool{length >= 8, upper, lower, digit, symbol} {
		if ok {
			score++
		}
	}
	if score > 4 {
		score = 4
	}
	return score
}

// StrengthLabel names a score for display.
func StrengthLabel(score int) string {
	switch score {
	case 0:
		return "very weak"
	case 1:
		return "weak"
	case 2:
		return "fair"
	case 3:
		return "strong"
	case 4:
		return "very strong"
	}
	return ""
}
