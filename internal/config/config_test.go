package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(New())
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.DefaultDueAmount != 1000 {
		t.Errorf("DefaultDueAmount = %v", cfg.DefaultDueAmount)
	}
	if cfg.MinImportAmount != 500 {
		t.Errorf("MinImportAmount = %v", cfg.MinImportAmount)
	}
	if cfg.BackupKeep != 10 {
		t.Errorf("BackupKeep = %d", cfg.BackupKeep)
	}
	if cfg.PhoneCountryCode != "242" || cfg.OrgName != "MEDD" {
		t.Errorf("PhoneCountryCode=%q OrgName=%q", cfg.PhoneCountryCode, cfg.OrgName)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("COTIS_DB_PATH", "/tmp/other.db")
	t.Setenv("COTIS_TOKEN_TTL", "2h")
	t.Setenv("COTIS_BACKUP_KEEP", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromViper(New())
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.BackupKeep != 3 {
		t.Errorf("BackupKeep = %d", cfg.BackupKeep)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero backups kept", key: "COTIS_BACKUP_KEEP", value: "0"},
		{name: "short jwt secret", key: "COTIS_JWT_SECRET", value: "short"},
		{name: "non numeric country code", key: "COTIS_PHONE_COUNTRY_CODE", value: "+242"},
		{name: "signed country code", key: "COTIS_PHONE_COUNTRY_CODE", value: "-242"},
		{name: "unknown log level", key: "COTIS_LOG_LEVEL", value: "chatty"},
		{name: "zero import minimum", key: "COTIS_MIN_IMPORT_AMOUNT", value: "0"},
		{name: "zero parcel price", key: "COTIS_PARCEL_PRICE", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromViper(New()); err == nil {
				t.Errorf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("COTIS_ORG_NAME=Quartier Nord\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("ENV_FILE", envFile)
	// godotenv sets the variable process-wide; clear it afterwards.
	t.Setenv("COTIS_ORG_NAME", "")
	os.Unsetenv("COTIS_ORG_NAME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OrgName != "Quartier Nord" {
		t.Errorf("OrgName = %q, want from env file", cfg.OrgName)
	}
}
