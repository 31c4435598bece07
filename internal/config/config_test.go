package config

import (
	"os"
	"testing"
)

// chdir switches the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoad_DefaultsAndWarnings(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"APP_ENV", "DB_PATH", "PORT", "LOG_LEVEL", "PDF_RATE_LIMIT",
		"ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET", "COMPANY_NAME", "COMPANY_TAGLINE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: db=%q port=%q", cfg.DBPath, cfg.Port)
	}
	if cfg.PDFRateLimit != "60-M" {
		t.Fatalf("PDFRateLimit = %q, want 60-M", cfg.PDFRateLimit)
	}
	if cfg.Company.Name != "Angel Stones" {
		t.Fatalf("Company.Name = %q", cfg.Company.Name)
	}
	if !cfg.IsDev() {
		t.Fatalf("empty APP_ENV should be dev")
	}
	if got := len(cfg.Warnings()); got != 3 {
		t.Fatalf("Warnings() returned %d entries, want 3", got)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "Prod")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("COMPANY_PHONE", "555-0100")

	cfg := Load()

	if cfg.IsDev() {
		t.Fatalf("APP_ENV=Prod should not be dev")
	}
	if cfg.Port != "9090" || cfg.Company.Phone != "555-0100" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", cfg.Warnings())
	}
}
