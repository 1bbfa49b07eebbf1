package password

import (
	"strings"
	"unicode"
)

// Strength levels ordered from weakest to strongest
const (
	LevelVeryWeak   = "very-weak"
	LevelWeak       = "weak"
	LevelFair       = "fair"
	LevelStrong     = "strong"
	LevelVeryStrong = "very-strong"
)

// StrengthResult is the outcome of scoring a password. Score accumulates one
// point per satisfied criterion (max 8); Feedback carries advisory,
// non-blocking suggestions.
type StrengthResult struct {
	Score    int      `json:"score"`
	Level    string   `json:"level"`
	Feedback []string `json:"feedback"`
}

// ValidationResult is the outcome of checking a password against the
// blocking requirements. IsValid is true exactly when Errors is empty.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Violation messages for blocking requirements
const (
	msgTooShort      = "password must be at least 8 characters long"
	msgNoUppercase   = "password must contain at least one uppercase letter"
	msgNoLowercase   = "password must contain at least one lowercase letter"
	msgNoNumber      = "password must contain at least one number"
	msgNoSpecialChar = "password must contain at least one special character"
	msgCommonPattern = "password contains a common word or pattern"
	msgSequential    = "password contains sequential characters"
)

// commonPasswords is an immutable set of passwords rejected outright
var commonPasswords = map[string]struct{}{
	"password":   {},
	"passw0rd":   {},
	"123456":     {},
	"1234567":    {},
	"12345678":   {},
	"123456789":  {},
	"1234567890": {},
	"qwerty":     {},
	"abc123":     {},
	"letmein":    {},
	"welcome":    {},
	"monkey":     {},
	"dragon":     {},
	"master":     {},
	"iloveyou":   {},
	"sunshine":   {},
	"princess":   {},
	"football":   {},
	"admin":      {},
	"login":      {},
	"trustno1":   {},
}

// commonPatterns are substrings that flag a password as predictable even
// when padded with extra characters (e.g. "Password123!")
var commonPatterns = []string{
	"password",
	"qwerty",
	"letmein",
	"welcome",
	"iloveyou",
	"admin",
}

// classes reports which character classes appear in the password
func classes(password string) (hasLower, hasUpper, hasNumber, hasSpecial bool) {
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}
	return
}

// IsCommon checks the password against the common-password set and the
// common-pattern substrings, case-insensitively.
func IsCommon(password string) bool {
	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		return true
	}
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Evaluate scores a password and maps the score to a strength level.
//
// One point per criterion: length >= 8, length >= 12, lowercase, uppercase,
// number, special character, no common word/pattern, no sequential run.
// Levels: 0-2 very-weak, 3-4 weak, 5 fair, 6 strong, 7-8 very-strong.
// A password that is itself in the common-password set is rated very-weak
// regardless of score.
func Evaluate(password string) StrengthResult {
	score := 0
	var feedback []string

	hasLower, hasUpper, hasNumber, hasSpecial := classes(password)

	if len(password) >= MinLength {
		score++
	}
	if len(password) >= 12 {
		score++
	} else {
		feedback = append(feedback, "use 12 or more characters for a stronger password")
	}
	if hasLower {
		score++
	}
	if hasUpper {
		score++
	} else {
		feedback = append(feedback, "add uppercase letters to strengthen the password")
	}
	if hasNumber {
		score++
	}
	if hasSpecial {
		score++
	} else {
		feedback = append(feedback, "add special characters to strengthen the password")
	}
	if !IsCommon(password) {
		score++
	} else {
		feedback = append(feedback, "avoid common words and predictable patterns")
	}
	if !HasSequentialChars(password) {
		score++
	} else {
		feedback = append(feedback, "avoid sequential characters like \"abc\" or \"123\"")
	}

	level := levelForScore(score)
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		// An exact dictionary hit is crackable no matter what else it scores
		level = LevelVeryWeak
	}

	return StrengthResult{
		Score:    score,
		Level:    level,
		Feedback: feedback,
	}
}

// Validate checks a password against the blocking requirements and returns
// every violation in a fixed order. Advisory suggestions stay in Evaluate.
func Validate(password string) ValidationResult {
	var errs []string

	hasLower, hasUpper, hasNumber, hasSpecial := classes(password)

	if len(password) < MinLength {
		errs = append(errs, msgTooShort)
	}
	if !hasUpper {
		errs = append(errs, msgNoUppercase)
	}
	if !hasLower {
		errs = append(errs, msgNoLowercase)
	}
	if !hasNumber {
		errs = append(errs, msgNoNumber)
	}
	if !hasSpecial {
		errs = append(errs, msgNoSpecialChar)
	}
	if IsCommon(password) {
		errs = append(errs, msgCommonPattern)
	}
	if HasSequentialChars(password) {
		errs = append(errs, msgSequential)
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func levelForScore(score int) string {
	switch {
	case score <= 2:
		return LevelVeryWeak
	case score <= 4:
		return LevelWeak
	case score == 5:
		return LevelFair
	case score == 6:
		return LevelStrong
	default:
		return LevelVeryStrong
	}
}
