package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, 3, cfg.Billing.GracePeriodDays)
	assert.Equal(t, 3, cfg.Billing.MaxReconcileAttempts)
	assert.Equal(t, time.Hour, cfg.Billing.SweepInterval)
	assert.False(t, cfg.Billing.PausedAsCancellation)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.SignatureTolerance)
	assert.Equal(t, []string{"log"}, cfg.Notifier.Sinks)
	assert.Equal(t, uint32(5), cfg.Notifier.Breaker.MaxFailures)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TUTORBILLING_BILLING_GRACE_PERIOD_DAYS", "7")
	t.Setenv("TUTORBILLING_BILLING_SWEEP_INTERVAL", "15m")
	t.Setenv("TUTORBILLING_DATABASE_DRIVER", "sqlite")
	t.Setenv("TUTORBILLING_NOTIFIER_SINKS", "log,redis")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Billing.GracePeriodDays)
	assert.Equal(t, 15*time.Minute, cfg.Billing.SweepInterval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Notifier.HasSink("redis"))
	assert.False(t, cfg.Notifier.HasSink("email"))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"grace days below one", "TUTORBILLING_BILLING_GRACE_PERIOD_DAYS", "0", "grace_period_days"},
		{"no reconcile attempts", "TUTORBILLING_BILLING_MAX_RECONCILE_ATTEMPTS", "0", "max_reconcile_attempts"},
		{"negative cancel window", "TUTORBILLING_BILLING_DELINQUENT_CANCEL_AFTER_DAYS", "-1", "delinquent_cancel_after_days"},
		{"unknown driver", "TUTORBILLING_DATABASE_DRIVER", "postgres", "unsupported database.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load("test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
