package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{name: "empty config", cfg: ClientConfig{}, wantErr: true},
		{name: "missing scheme", cfg: ClientConfig{ServerURL: "localhost:8080"}, wantErr: true},
		{name: "http", cfg: ClientConfig{ServerURL: "http://localhost:8080"}, wantErr: false},
		{name: "https", cfg: ClientConfig{ServerURL: "https://certs.example.com"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	cfg := &ClientConfig{
		ServerURL:    "https://certs.example.com",
		Email:        "admin@system.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
	if !loaded.IsLoggedIn() {
		t.Error("expected profile to be logged in")
	}

	loaded.ClearSession()
	if loaded.IsLoggedIn() || loaded.RefreshToken != "" {
		t.Error("ClearSession should drop both tokens")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "" || cfg.IsLoggedIn() {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("server_url: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
