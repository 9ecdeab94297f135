// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Storage drivers supported by the application.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver             string        `mapstructure:"DB_DRIVER"`
	DBSource             string        `mapstructure:"DB_SOURCE"`
	Migrate              bool          `mapstructure:"MIGRATE"`
	ServerAddress        string        `mapstructure:"SERVER_ADDRESS"`
	TokenSymmetricKey    string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration  time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `mapstructure:"REFRESH_TOKEN_DURATION"`
	Environement         string        `mapstructure:"GO_ENV"`
	LedgerCurrency       string        `mapstructure:"LEDGER_CURRENCY"`
	TxIDAttempts         int           `mapstructure:"TX_ID_ATTEMPTS"`
	RedisAddr            string        `mapstructure:"REDIS_ADDR"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int           `mapstructure:"REDIS_DB"`
	StatementCacheTTL    time.Duration `mapstructure:"STATEMENT_CACHE_TTL"`
	AdminUsername        string        `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash    string        `mapstructure:"ADMIN_PASSWORD_HASH"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("MIGRATE", false)
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_SYMMETRIC_KEY", "")
	v.SetDefault("ACCESS_TOKEN_DURATION", 15*time.Minute)
	v.SetDefault("REFRESH_TOKEN_DURATION", 24*time.Hour)
	v.SetDefault("GO_ENV", "production")
	v.SetDefault("LEDGER_CURRENCY", "INR")
	v.SetDefault("TX_ID_ATTEMPTS", 3)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATEMENT_CACHE_TTL", 5*time.Minute)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
}

// Load read configuration from file or environment variables.
//
// Every key has a default, so environment variables override values even
// when they are missing from the file.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
