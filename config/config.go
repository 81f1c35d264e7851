/*
Package config loads the engine configuration from JSON.

PURPOSE:
  Converts a JSON configuration file into the engine's typed settings.
  This keeps policy knobs (yearly entitlement, rejection behavior,
  company holidays) out of code - HR can adjust them without a rebuild.

JSON SCHEMA:
  {
    "initial_entitlement": 23,
    "rejection_policy": "reset_to_initial",
    "holidays": ["2026-01-01", "2026-12-25"]
  }

DEFAULTS:
  - initial_entitlement: 23 days
  - rejection_policy: reset_to_initial
  - holidays: none (weekends are always non-working)

Holidays listed here are merged with the holidays table at startup into
one immutable calendar snapshot.

SEE ALSO:
  - leave/lifecycle.go: RejectionPolicy semantics
  - cmd/server/main.go: Where the config is loaded and wired
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/leave-engine/leave"
)

// DefaultEntitlement is the yearly entitlement used when the config
// does not override it.
const DefaultEntitlement = 23

// Config is the engine configuration.
type Config struct {
	InitialEntitlement int
	RejectionPolicy    leave.RejectionPolicy
	Holidays           []leave.Date
}

type configJSON struct {
	InitialEntitlement int      `json:"initial_entitlement,omitempty"`
	RejectionPolicy    string   `json:"rejection_policy,omitempty"`
	Holidays           []string `json:"holidays,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		InitialEntitlement: DefaultEntitlement,
		RejectionPolicy:    leave.RejectResetToInitial,
	}
}

// Load reads and parses a JSON configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse converts JSON configuration bytes into a Config, applying
// defaults for omitted fields and validating the rest.
func Parse(data []byte) (Config, error) {
	var cj configJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := Default()

	if cj.InitialEntitlement != 0 {
		if cj.InitialEntitlement < 0 {
			return Config{}, fmt.Errorf("initial_entitlement must be positive, got %d", cj.InitialEntitlement)
		}
		cfg.InitialEntitlement = cj.InitialEntitlement
	}

	policy, err := leave.ParseRejectionPolicy(cj.RejectionPolicy)
	if err != nil {
		return Config{}, err
	}
	cfg.RejectionPolicy = policy

	for _, s := range cj.Holidays {
		d, err := leave.ParseDate(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid holiday date %q: %w", s, err)
		}
		cfg.Holidays = append(cfg.Holidays, d)
	}

	return cfg, nil
}
