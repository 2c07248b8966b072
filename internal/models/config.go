package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Ledger   LedgerConfig
	Server   ServerConfig
	Auth     AuthConfig
	Formance FormanceConfig
	Ads      AdsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// LedgerConfig holds the points economy rules
type LedgerConfig struct {
	MaxCreditPoints     int64
	MinWithdrawalPoints int64
	ExchangeRate        int64 // points per USD unit
	RejectPolicy        RejectPolicy
	Location            *time.Location
	MirrorTimeout       time.Duration // per-entry budget for the external mirror
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	AllowedOrigins     []string
	CreditRatePerMin   int
	CreditBurst        int
	HousekeepingPeriod time.Duration
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JwtSecret string
	Issuer    string
	TokenTtl  time.Duration
}

// FormanceConfig holds the optional ledger mirror settings. The mirror is
// disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	Timeout      time.Duration
}

// AdsConfig points at the ad catalog seed file
type AdsConfig struct {
	CatalogFile string
	SeedOnStart bool
}

// Enabled reports whether the Formance mirror is configured
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != ""
}
