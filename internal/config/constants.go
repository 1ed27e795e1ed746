package config

const (
	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./library.db"

	// DefaultIssuer and DefaultAudience are embedded in every access token
	DefaultIssuer   = "library-api"
	DefaultAudience = "library-clients"
)
