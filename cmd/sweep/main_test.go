package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResetCommandPrintsSummary(t *testing.T) {
	out, err := run(t, "reset", "daily")
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, "reset_daily", summary["job"])
	assert.Equal(t, true, summary["success"])
	assert.Equal(t, float64(0), summary["items_processed"])
}

func TestAnalyticsCommand(t *testing.T) {
	out, err := run(t, "analytics", "yearly")
	require.NoError(t, err)
	assert.Contains(t, out, `"job": "analytics_year"`)
}

func TestCommandArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"once cannot be reset", []string{"reset", "once"}},
		{"unknown reset tier", []string{"reset", "hourly"}},
		{"unknown analytics tier", []string{"analytics", "decade"}},
		{"missing user", []string{"rebuild"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
