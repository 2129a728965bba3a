package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName    string
	LogLevel   string
	PrettyLogs bool

	// PostgreSQL
	DatabaseHost                string
	DatabasePort                string
	DatabaseUserName            string
	DatabasePassword            string
	DatabaseName                string
	DatabaseSSLMode             string
	DatabaseMaxOpenConns        int
	DatabaseMaxIdleConns        int
	DatabaseConnMaxLifetime     time.Duration
	DatabaseMigrationFolderPath string
	DatabaseMigrationVersion    uint
	DatabaseMigrationForce      int

	// Matching weights. The weight of a field doubles as its maximum score
	// contribution, so a perfect match on every comparable field scores 1.0.
	MatchEmailWeight      float64
	MatchEmailDomainScore float64
	MatchPhoneWeight      float64
	MatchNameWeight       float64
	MatchCompanyWeight    float64
	MatchNameReasonCutoff float64

	// Thresholds
	DuplicateThreshold     float64
	AutoMergeThreshold     float64
	AutoMergeMaxMerges     int
	ResolveAttachThreshold float64

	PhoneRegion string

	TracingExport bool
}

// Load reads configuration from the environment (with .env support for local
// development). Missing store credentials are a fatal configuration error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "aster")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PRETTY_LOGS", false)

	viper.SetDefault("DB_HOST", "")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER_NAME", "")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "aster")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "10s")
	viper.SetDefault("DB_MIGRATION_FOLDER_PATH", "db/pg")
	viper.SetDefault("DB_MIGRATION_VERSION", 0)
	viper.SetDefault("DB_MIGRATION_FORCE", 0)

	viper.SetDefault("MATCH_EMAIL_WEIGHT", 0.9)
	viper.SetDefault("MATCH_EMAIL_DOMAIN_SCORE", 0.2)
	viper.SetDefault("MATCH_PHONE_WEIGHT", 0.9)
	viper.SetDefault("MATCH_NAME_WEIGHT", 0.6)
	viper.SetDefault("MATCH_COMPANY_WEIGHT", 0.3)
	viper.SetDefault("MATCH_NAME_REASON_CUTOFF", 0.8)

	viper.SetDefault("DUPLICATE_THRESHOLD", 0.7)
	viper.SetDefault("AUTO_MERGE_THRESHOLD", 0.9)
	viper.SetDefault("AUTO_MERGE_MAX_MERGES", 50)
	viper.SetDefault("RESOLVE_ATTACH_THRESHOLD", 0.9)

	viper.SetDefault("PHONE_REGION", "au")

	viper.SetDefault("TRACING_EXPORT", false)

	cfg := &Config{
		AppName:    viper.GetString("APP_NAME"),
		LogLevel:   viper.GetString("LOG_LEVEL"),
		PrettyLogs: viper.GetBool("PRETTY_LOGS"),

		DatabaseHost:                viper.GetString("DB_HOST"),
		DatabasePort:                viper.GetString("DB_PORT"),
		DatabaseUserName:            viper.GetString("DB_USER_NAME"),
		DatabasePassword:            viper.GetString("DB_PASSWORD"),
		DatabaseName:                viper.GetString("DB_NAME"),
		DatabaseSSLMode:             viper.GetString("DB_SSL_MODE"),
		DatabaseMaxOpenConns:        viper.GetInt("DB_MAX_OPEN_CONNS"),
		DatabaseMaxIdleConns:        viper.GetInt("DB_MAX_IDLE_CONNS"),
		DatabaseConnMaxLifetime:     viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		DatabaseMigrationFolderPath: viper.GetString("DB_MIGRATION_FOLDER_PATH"),
		DatabaseMigrationVersion:    viper.GetUint("DB_MIGRATION_VERSION"),
		DatabaseMigrationForce:      viper.GetInt("DB_MIGRATION_FORCE"),

		MatchEmailWeight:      viper.GetFloat64("MATCH_EMAIL_WEIGHT"),
		MatchEmailDomainScore: viper.GetFloat64("MATCH_EMAIL_DOMAIN_SCORE"),
		MatchPhoneWeight:      viper.GetFloat64("MATCH_PHONE_WEIGHT"),
		MatchNameWeight:       viper.GetFloat64("MATCH_NAME_WEIGHT"),
		MatchCompanyWeight:    viper.GetFloat64("MATCH_COMPANY_WEIGHT"),
		MatchNameReasonCutoff: viper.GetFloat64("MATCH_NAME_REASON_CUTOFF"),

		DuplicateThreshold:     viper.GetFloat64("DUPLICATE_THRESHOLD"),
		AutoMergeThreshold:     viper.GetFloat64("AUTO_MERGE_THRESHOLD"),
		AutoMergeMaxMerges:     viper.GetInt("AUTO_MERGE_MAX_MERGES"),
		ResolveAttachThreshold: viper.GetFloat64("RESOLVE_ATTACH_THRESHOLD"),

		PhoneRegion: viper.GetString("PHONE_REGION"),

		TracingExport: viper.GetBool("TRACING_EXPORT"),
	}

	if cfg.DatabaseHost == "" || cfg.DatabaseUserName == "" {
		return nil, fmt.Errorf("database credentials are not configured: DB_HOST and DB_USER_NAME are required")
	}

	return cfg, nil
}
