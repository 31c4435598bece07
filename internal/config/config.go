package config

import (
	"os"
	"strings"
)

const (
	defaultEnv          = "dev"
	defaultDBPath       = "./dev.db"
	defaultPort         = "8080"
	defaultLogLevel     = "info"
	defaultPDFRateLimit = "60-M"
	defaultCompanyName  = "Angel Stones"
	defaultTagline      = "Quality Stone Products & Services"
)

// Company holds the branding printed on generated documents.
type Company struct {
	Name    string
	Tagline string
	Phone   string
	Email   string
}

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	LogLevel      string
	PDFRateLimit  string
	Company       Company
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Production injects real env vars; a missing .env is fine.
	_ = loadDotEnv(".env")

	return Config{
		Env:           strings.ToLower(getenv("APP_ENV", defaultEnv)),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        getenv("DB_PATH", defaultDBPath),
		Port:          getenv("PORT", defaultPort),
		LogLevel:      getenv("LOG_LEVEL", defaultLogLevel),
		PDFRateLimit:  getenv("PDF_RATE_LIMIT", defaultPDFRateLimit),
		Company: Company{
			Name:    getenv("COMPANY_NAME", defaultCompanyName),
			Tagline: getenv("COMPANY_TAGLINE", defaultTagline),
			Phone:   os.Getenv("COMPANY_PHONE"),
			Email:   os.Getenv("COMPANY_EMAIL"),
		},
	}
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

// Warnings lists missing settings worth surfacing at startup.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
