package constants

const (
	AppName            = "trainplan"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/trainplan/trainplan.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// EnvDBConnection names the environment variable consulted for a PostgreSQL connection string
	EnvDBConnection = "TRAINPLAN_DB_CONNECTION"

	// HistoryWindowDays bounds the history window read per request
	HistoryWindowDays = 365
	// QualityWindowDays is the rolling window used for training-quality classification
	QualityWindowDays = 28
)
