// Package password provides password strength evaluation, secure password
// generation, and a salted hashing facade used by the authentication layer.
package password

import "errors"

// Character classes used for composition checks and generation
const (
	LowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	UppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	NumberChars    = "0123456789"
	SpecialChars   = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// MinLength is the minimum acceptable password length
const MinLength = 8

// DefaultGeneratedLength is the length used when a generation policy
// doesn't specify one
const DefaultGeneratedLength = 16

// Input errors surfaced synchronously to the caller
var (
	ErrEmptyPassword   = errors.New("password must be a non-empty string")
	ErrEmptyDigest     = errors.New("digest must be a non-empty string")
	ErrEmptySalt       = errors.New("salt must be a non-empty string")
	ErrNoCharacterSets = errors.New("at least one character class must be enabled")
	ErrInvalidLength   = errors.New("password length must be a positive integer")
)

// GenerationPolicy configures the secure password generator. At least one
// character class flag must be enabled.
type GenerationPolicy struct {
	Length       int  `json:"length"`
	Lowercase    bool `json:"include_lowercase"`
	Uppercase    bool `json:"include_uppercase"`
	Numbers      bool `json:"include_numbers"`
	SpecialChars bool `json:"include_special_chars"`
}

// DefaultGenerationPolicy returns the policy used when callers don't
// supply one: 16 characters drawn from all four classes.
func DefaultGenerationPolicy() GenerationPolicy {
	return GenerationPolicy{
		Length:       DefaultGeneratedLength,
		Lowercase:    true,
		Uppercase:    true,
		Numbers:      true,
		SpecialChars: true,
	}
}

// charset returns the union of the enabled character classes
func (p GenerationPolicy) charset() string {
	var set string
	if p.Lowercase {
		set += LowercaseChars
	}
	if p.Uppercase {
		set += UppercaseChars
	}
	if p.Numbers {
		set += NumberChars
	}
	if p.SpecialChars {
		set += SpecialChars
	}
	return set
}
