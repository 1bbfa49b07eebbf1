package server

// Config holds server configuration
type Config struct {
	Port                     string
	JWTSecret                string // Secret key for JWT authentication
	DataDir                  string // Directory for the SQLite database and flags file
	BaseURL                  string // Public base URL used in email links
	RedisAddr                string // Optional; presence and rate limiting are disabled when empty
	RedisPassword            string
	RedisDB                  int
	ResendAPIKey             string // Optional; emails are logged when empty
	EmailFromName            string
	EmailFromAddress         string
	RequireEmailVerification bool
	Development              bool // Include tokens in responses for local testing
}
