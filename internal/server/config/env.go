package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the subset of Config that can be supplied through the
// environment. Mail credentials in particular are expected to arrive this
// way rather than on the command line.
type envConfig struct {
	EndpointAddrHTTP      string        `env:"ADDRESS"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	SecretKey             string        `env:"JWT_USER_SECRET"`
	TokenValidityDuration time.Duration `env:"TOKEN_VALIDITY_DURATION"`
	FrontendURL           string        `env:"FRONTEND_URL"`
	SecureCookies         *bool         `env:"SECURE_COOKIES"`
	SMTPHost              string        `env:"SMTP_HOST"`
	SMTPPort              int           `env:"SMTP_PORT"`
	SMTPUsername          string        `env:"SMTP_USERNAME"`
	SMTPPassword          string        `env:"SMTP_PASSWORD"`
	SMTPFrom              string        `env:"SMTP_FROM"`
}

// parseEnv overlays environment values onto the provided Config. Unset
// variables leave the existing values in place.
func parseEnv(config *Config) {
	c, err := env.ParseAs[envConfig]()
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration
	}
	if c.FrontendURL != "" {
		config.FrontendURL = c.FrontendURL
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	if c.SMTPHost != "" {
		config.SMTPHost = c.SMTPHost
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.SMTPUsername != "" {
		config.SMTPUsername = c.SMTPUsername
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
}
