package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort                string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL             string   `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns              int32    `env:"DB_MAX_CONNS" envDefault:"10"`
	DBTimeoutSeconds        int      `env:"DB_TIMEOUT_SECONDS" envDefault:"5"`
	JWTSecret               string   `env:"JWT_SECRET"`
	IngestKeyHash           string   `env:"INGEST_KEY_HASH"`
	PhoneSuffixes           []string `env:"PHONE_SUFFIXES" envSeparator:"," envDefault:"@s.whatsapp.net"`
	RedisAddr               string   `env:"REDIS_ADDR"`
	RedisPassword           string   `env:"REDIS_PASSWORD"`
	RedisDB                 int      `env:"REDIS_DB" envDefault:"0"`
	IngestRateWindowSeconds int      `env:"INGEST_RATE_WINDOW_SECONDS" envDefault:"60"`
	IngestRateMax           int      `env:"INGEST_RATE_MAX" envDefault:"120"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
	}
	return &cfg, nil
}

// DBTimeout es el limite por operacion contra la base de datos.
func (c *Config) DBTimeout() time.Duration {
	if c.DBTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.DBTimeoutSeconds) * time.Second
}

// IngestRateWindow es la ventana del limitador de ingesta.
func (c *Config) IngestRateWindow() time.Duration {
	if c.IngestRateWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.IngestRateWindowSeconds) * time.Second
}
