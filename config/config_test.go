package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("PORT", "8080")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SWEEP_WORKERS", "8")
	t.Setenv("SWEEP_ITEM_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sweep.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Sweep.Workers)
	}
	if cfg.Sweep.ItemTimeout != 10*time.Second {
		t.Errorf("ItemTimeout = %v, want 10s", cfg.Sweep.ItemTimeout)
	}
	if cfg.Database.ItemsCollection == "" {
		t.Error("ItemsCollection should have a default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "STORE_DRIVER", "sqlite"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"zero workers", "SWEEP_WORKERS", "0"},
		{"non numeric port", "PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", "8080")
			t.Setenv("TIMEZONE", "UTC")
			t.Setenv("STORE_DRIVER", "memory")
			t.Setenv("SWEEP_WORKERS", "4")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Berlin"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %s", loc)
	}
}
