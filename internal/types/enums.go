package types

import (
	"fmt"
)

// SessionStatus represents the lifecycle state of a tutoring session
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"   // Booked, not yet started
	SessionInProgress SessionStatus = "in_progress" // Currently running
	SessionCompleted  SessionStatus = "completed"   // Finished normally
	SessionCancelled  SessionStatus = "cancelled"   // Cancelled by either party
)

// SkillLevel represents how far along a user is in a skill
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

var (
	// AllSessionStatuses contains all valid session statuses
	AllSessionStatuses = []SessionStatus{
		SessionScheduled,
		SessionInProgress,
		SessionCompleted,
		SessionCancelled,
	}

	// AllSkillLevels contains all valid skill levels
	AllSkillLevels = []SkillLevel{
		SkillBeginner,
		SkillIntermediate,
		SkillAdvanced,
		SkillExpert,
	}

	sessionStatusMap = map[string]SessionStatus{
		string(SessionScheduled):  SessionScheduled,
		string(SessionInProgress): SessionInProgress,
		string(SessionCompleted):  SessionCompleted,
		string(SessionCancelled):  SessionCancelled,
	}

	skillLevelMap = map[string]SkillLevel{
		string(SkillBeginner):     SkillBeginner,
		string(SkillIntermediate): SkillIntermediate,
		string(SkillAdvanced):     SkillAdvanced,
		string(SkillExpert):       SkillExpert,
	}
)

// Error types for invalid values
var (
	ErrInvalidSessionStatus = fmt.Errorf("invalid session status")
	ErrInvalidSkillLevel    = fmt.Errorf("invalid skill level")
)

// IsValid checks if the SessionStatus is valid
func (s SessionStatus) IsValid() bool {
	_, ok := sessionStatusMap[string(s)]
	return ok
}

// String converts the enum to string
func (s SessionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status allows no further transitions
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// ParseSessionStatus parses a string into a SessionStatus
func ParseSessionStatus(s string) (SessionStatus, error) {
	if status, ok := sessionStatusMap[s]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidSessionStatus, s)
}

// IsValid checks if the SkillLevel is valid
func (l SkillLevel) IsValid() bool {
	_, ok := skillLevelMap[string(l)]
	return ok
}

// String converts the enum to string
func (l SkillLevel) String() string {
	return string(l)
}

// ParseSkillLevel parses a string into a SkillLevel
func ParseSkillLevel(s string) (SkillLevel, error) {
	if level, ok := skillLevelMap[s]; ok {
		return level, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidSkillLevel, s)
}
