/*
Package config holds the static, init-time configuration for the engine.

PURPOSE:
  Everything that was once an ambient constant in the original deployment
  (admin allow-lists, leadership title lists, the eligibility threshold, the
  sabbatical option catalog, the default planning checklist) is loaded once
  at process start into a read-only Config value and passed explicitly into
  the components that need it. No globals, so tests substitute their own.

FILE FORMAT:
  YAML. See Default() for the shape and the shipped defaults.

SEE ALSO:
  - access/resolver.go: consumes NetworkAdmins and SchoolLeaderTitles
  - sabbatical/engine.go: consumes EligibilityYears, Options, ChecklistTemplate
*/
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Option is one entry in the sabbatical option catalog,
// e.g. "8 weeks at 100% salary".
type Option struct {
	Weeks            int             `yaml:"weeks"`
	SalaryPercentage decimal.Decimal `yaml:"salary_percentage"`
	Label            string          `yaml:"label"`
}

type Config struct {
	// NetworkAdmins is the allow-list of canonical emails with full access.
	NetworkAdmins []string `yaml:"network_admins"`

	// SchoolLeaderTitles grants read-only, own-school visibility by exact
	// job-title match (case-insensitive, trimmed).
	SchoolLeaderTitles []string `yaml:"school_leader_titles"`

	// EligibilityYears is the minimum years of service to apply.
	EligibilityYears decimal.Decimal `yaml:"eligibility_years"`

	// Options is the sabbatical option catalog, keyed by option key.
	Options map[string]Option `yaml:"options"`

	// ChecklistTemplate seeds each new application's planning checklist.
	ChecklistTemplate []string `yaml:"checklist_template"`

	// MaxChainHops bounds supervisor chain walks.
	MaxChainHops int `yaml:"max_chain_hops"`

	// Aliases maps secondary emails to canonical identities.
	Aliases map[string]string `yaml:"aliases"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		NetworkAdmins:      []string{},
		SchoolLeaderTitles: []string{"Principal", "Head of School", "School Director"},
		EligibilityYears:   decimal.NewFromInt(10),
		Options: map[string]Option{
			"8w-100": {Weeks: 8, SalaryPercentage: decimal.NewFromInt(100), Label: "8 Weeks - 100% Salary"},
			"12w-67": {Weeks: 12, SalaryPercentage: decimal.NewFromInt(67), Label: "12 Weeks - 67% Salary"},
		},
		ChecklistTemplate: []string{
			"Discuss coverage plan with your supervisor",
			"Document recurring responsibilities and handoffs",
			"Identify coverage owner for each responsibility",
			"Schedule pre-sabbatical knowledge transfer sessions",
			"Set an out-of-office and escalation contact",
		},
		MaxChainHops: 10,
		Aliases:      map[string]string{},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants a misconfigured file could break.
func (c Config) Validate() error {
	if c.EligibilityYears.IsNegative() {
		return fmt.Errorf("eligibility_years must not be negative: %s", c.EligibilityYears)
	}
	if len(c.Options) == 0 {
		return fmt.Errorf("option catalog must not be empty")
	}
	for key, opt := range c.Options {
		if opt.Weeks <= 0 {
			return fmt.Errorf("option %q: weeks must be positive", key)
		}
		if opt.SalaryPercentage.IsNegative() || opt.SalaryPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("option %q: salary_percentage out of range", key)
		}
	}
	if c.MaxChainHops < 0 {
		return fmt.Errorf("max_chain_hops must not be negative")
	}
	return nil
}
