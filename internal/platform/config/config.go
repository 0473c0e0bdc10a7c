package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `env:"DRIVELOG_ADDR" envDefault:":8080"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	// AdminIdentity is the initial administrative capability holder.
	AdminIdentity string `env:"DRIVELOG_ADMIN_IDENTITY,required"`
}

// Database configures the optional PostgreSQL backing for the registry and
// ledger stores. Empty URL selects the in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// Redis configures the optional Redis backing for the consent store.
// Empty URL selects the in-memory store.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Audit configures the notification event pipeline. Brokers empty means no
// Kafka fan-out; buffer zero means synchronous emission.
type Audit struct {
	KafkaBrokers []string `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AUDIT_KAFKA_TOPIC" envDefault:"drivelog.audit"`
	AsyncBuffer  int      `env:"AUDIT_ASYNC_BUFFER" envDefault:"256"`
}

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Audit    Audit
}

// Load builds the configuration from environment variables so main stays lean.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
