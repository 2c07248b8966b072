package config

import (
	"testing"
	"time"

	"ad-rewards-go/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ledger.MaxCreditPoints != 10 || cfg.Ledger.MinWithdrawalPoints != 900 || cfg.Ledger.ExchangeRate != 300 {
		t.Errorf("Unexpected ledger defaults %+v", cfg.Ledger)
	}
	if cfg.Ledger.RejectPolicy != models.RejectCreditEarned {
		t.Errorf("Expected default reject policy %s, got %s", models.RejectCreditEarned, cfg.Ledger.RejectPolicy)
	}
	if cfg.Database.BusyTimeout != 5*time.Second {
		t.Errorf("Expected 5s busy timeout, got %v", cfg.Database.BusyTimeout)
	}
	if cfg.Formance.Enabled() {
		t.Error("Formance mirror should be disabled without a stack URL")
	}
	if cfg.Ledger.MirrorTimeout != 2*time.Second {
		t.Errorf("Expected 2s mirror timeout, got %v", cfg.Ledger.MirrorTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_MIN_WITHDRAWAL_POINTS", "1200")
	t.Setenv("LEDGER_REJECT_POLICY", "reverse_withdrawn")
	t.Setenv("LEDGER_TIMEZONE", "UTC")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("HOUSEKEEPING_PERIOD", "90s")
	t.Setenv("LEDGER_MIRROR_TIMEOUT", "500ms")
	t.Setenv("FORMANCE_STACK_URL", "https://stack.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ledger.MinWithdrawalPoints != 1200 {
		t.Errorf("Expected 1200, got %d", cfg.Ledger.MinWithdrawalPoints)
	}
	if cfg.Ledger.RejectPolicy != models.RejectReverseWithdrawn {
		t.Errorf("Expected reverse_withdrawn, got %s", cfg.Ledger.RejectPolicy)
	}
	if cfg.Ledger.Location != time.UTC {
		t.Errorf("Expected UTC, got %v", cfg.Ledger.Location)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.HousekeepingPeriod != 90*time.Second {
		t.Errorf("Expected 90s, got %v", cfg.Server.HousekeepingPeriod)
	}
	if !cfg.Formance.Enabled() {
		t.Error("Formance mirror should be enabled")
	}
	if cfg.Ledger.MirrorTimeout != 500*time.Millisecond {
		t.Errorf("Expected 500ms mirror timeout, got %v", cfg.Ledger.MirrorTimeout)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"LEDGER_REJECT_POLICY": "refund",
		"LEDGER_TIMEZONE":      "Mars/Olympus",
		"DB_PING_TIMEOUT":      "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected %s=%q to be rejected", key, value)
			}
		})
	}
}
