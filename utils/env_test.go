package utils

import (
	"testing"
	"time"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 7 * time.Second},
		{"90s", 90 * time.Second},
		{"5m", 5 * time.Minute},
		{"60", time.Minute},
		{"soon", 7 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := GetEnvAsDuration("TEST_DURATION", 7*time.Second); got != tt.want {
			t.Errorf("GetEnvAsDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("TEST_INT", "eight")
	if got := GetEnvAsInt("TEST_INT", 8); got != 8 {
		t.Errorf("GetEnvAsInt = %d, want default 8", got)
	}
	t.Setenv("TEST_INT", "12")
	if got := GetEnvAsInt("TEST_INT", 8); got != 12 {
		t.Errorf("GetEnvAsInt = %d, want 12", got)
	}
}
