package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfigPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.Auth.JWTSecret == "" {
		t.Error("Auth.JWTSecret should not be empty")
	}

	// Defaults applied by validate
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, 7*24*time.Hour)
	}

	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should not be empty")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Webserver: Webserver{
					Port: 8080,
					URL:  "http://localhost:8080",
				},
				Auth: Auth{JWTSecret: "secret"},
			},
			wantErr: false,
		},
		{
			name: "missing port",
			config: Config{
				Webserver: Webserver{
					Port: 0,
					URL:  "http://localhost:8080",
				},
				Auth: Auth{JWTSecret: "secret"},
			},
			wantErr: true,
		},
		{
			name: "missing URL",
			config: Config{
				Webserver: Webserver{
					Port: 8080,
					URL:  "",
				},
				Auth: Auth{JWTSecret: "secret"},
			},
			wantErr: true,
		},
		{
			name: "missing JWT secret",
			config: Config{
				Webserver: Webserver{
					Port: 8080,
					URL:  "http://localhost:8080",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidationDefaults(t *testing.T) {
	cfg := Config{
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
		Auth: Auth{JWTSecret: "secret"},
	}

	if err := validate(&cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}

	if cfg.Webserver.ShutDownTime != 5 {
		t.Errorf("Webserver.ShutDownTime = %v, want 5", cfg.Webserver.ShutDownTime)
	}

	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, 7*24*time.Hour)
	}
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	jsonOverride := `{"Title":"Test Override","Webserver":{"Port":9090}}`
	t.Setenv("GO_RBAC_ADMIN_CONFIG_JSON", jsonOverride)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Test Override" {
		t.Errorf("Title = %v, want %v", cfg.Title, "Test Override")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %v, want %v", cfg.Webserver.Port, 9090)
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	tomlStr, err := DumpConfig(cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if tomlStr == "" {
		t.Error("DumpConfig() returned empty string")
	}

	if !strings.Contains(tomlStr, "Test") {
		t.Error("DumpConfig() output should contain Title")
	}
}
