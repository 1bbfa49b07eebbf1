package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FeatureFlags represents the feature flags for the application
type FeatureFlags struct {
	// Authentication features
	RequireEmailVerification bool `json:"require_email_verification"`
	AllowPasswordReset       bool `json:"allow_password_reset"`

	// Security features
	EnableRateLimiting bool `json:"enable_rate_limiting"`

	// Platform features
	EnableChat    bool `json:"enable_chat"`
	EnableReviews bool `json:"enable_reviews"`
	EnableSearch  bool `json:"enable_search"`
}

// FeatureFlagManager manages feature flags persisted to a JSON file
type FeatureFlagManager struct {
	flags      FeatureFlags
	configPath string
	mu         sync.RWMutex
}

// NewFeatureFlagManager creates a new feature flag manager
func NewFeatureFlagManager(configPath string) (*FeatureFlagManager, error) {
	manager := &FeatureFlagManager{
		configPath: configPath,
		flags: FeatureFlags{
			RequireEmailVerification: false,
			AllowPasswordReset:       true,
			EnableRateLimiting:       true,
			EnableChat:               true,
			EnableReviews:            true,
			EnableSearch:             true,
		},
	}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		if err := manager.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load feature flags: %v", err)
		}
	} else {
		// Save default configuration
		if err := manager.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to save default feature flags: %v", err)
		}
	}

	return manager, nil
}

// GetFlags returns the current feature flags
func (m *FeatureFlagManager) GetFlags() FeatureFlags {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags
}

// UpdateFlags updates the feature flags
func (m *FeatureFlagManager) UpdateFlags(flags FeatureFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags = flags
	return m.saveToFile()
}

// loadFromFile loads feature flags from a file
func (m *FeatureFlagManager) loadFromFile() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read feature flags file: %v", err)
	}

	var flags FeatureFlags
	if err := json.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("failed to parse feature flags: %v", err)
	}

	m.flags = flags
	return nil
}

// saveToFile saves feature flags to a file
func (m *FeatureFlagManager) saveToFile() error {
	data, err := json.MarshalIndent(m.flags, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feature flags: %v", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write feature flags file: %v", err)
	}

	return nil
}
