package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/firstline/sabbatical-engine/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if !cfg.EligibilityYears.Equal(decimal.NewFromInt(10)) {
		t.Errorf("default eligibility = %s, want 10", cfg.EligibilityYears)
	}
	if len(cfg.Options) != 2 {
		t.Fatalf("default catalog has %d options, want 2", len(cfg.Options))
	}
	if got := cfg.Options["8w-100"].Label; got != "8 Weeks - 100% Salary" {
		t.Errorf("8w-100 label = %q", got)
	}
	if got := cfg.Options["12w-67"].Weeks; got != 12 {
		t.Errorf("12w-67 weeks = %d, want 12", got)
	}
	if len(cfg.ChecklistTemplate) == 0 {
		t.Error("default checklist template must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if len(cfg.Options) != 2 {
		t.Errorf("expected default options, got %d", len(cfg.Options))
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// GIVEN: a config file overriding admins and the threshold
	// WHEN: loaded
	// THEN: overridden fields change, untouched defaults survive
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
network_admins:
  - talent@firstline.example
school_leader_titles:
  - Principal
eligibility_years: 7.5
aliases:
  t.admin@firstline.example: talent@firstline.example
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.NetworkAdmins) != 1 || cfg.NetworkAdmins[0] != "talent@firstline.example" {
		t.Errorf("network admins = %v", cfg.NetworkAdmins)
	}
	if !cfg.EligibilityYears.Equal(decimal.NewFromFloat(7.5)) {
		t.Errorf("eligibility = %s, want 7.5", cfg.EligibilityYears)
	}
	if cfg.Aliases["t.admin@firstline.example"] != "talent@firstline.example" {
		t.Errorf("aliases = %v", cfg.Aliases)
	}
	if len(cfg.Options) != 2 {
		t.Errorf("option catalog default must survive partial override, got %d", len(cfg.Options))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected an error for a missing explicit path")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative eligibility", func(c *config.Config) {
			c.EligibilityYears = decimal.NewFromInt(-1)
		}},
		{"empty catalog", func(c *config.Config) {
			c.Options = map[string]config.Option{}
		}},
		{"zero-week option", func(c *config.Config) {
			c.Options["bad"] = config.Option{Weeks: 0, SalaryPercentage: decimal.NewFromInt(50)}
		}},
		{"salary over 100", func(c *config.Config) {
			c.Options["bad"] = config.Option{Weeks: 4, SalaryPercentage: decimal.NewFromInt(150)}
		}},
		{"negative chain hops", func(c *config.Config) {
			c.MaxChainHops = -1
		}},
	}
	for _, c := range cases {
		cfg := config.Default()
		c.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", c.name)
		}
	}
}
