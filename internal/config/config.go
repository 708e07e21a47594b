// Package config loads the conformance harness's gate thresholds and
// fixture-root location from TOML, the teacher's own config format
// (internal/parser/toml), following the same decode-into-private-struct
// then convert-to-public-type pattern used there.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// GateConfig is one packet's gate thresholds (spec §6).
type GateConfig struct {
	PacketID                     string
	StrictBudgetCritical         int
	StrictBudgetNoncriticalRatio float64
	HardenedBudgetRatio          float64
	HardenedAllowlistCategories  []string
	OracleDegradeAllowed         bool
}

// DefaultGateConfig returns spec §4.9's default budgets for a packet
// with no explicit gate-config entry.
func DefaultGateConfig(packetID string) GateConfig {
	return GateConfig{
		PacketID:                     packetID,
		StrictBudgetCritical:         0,
		StrictBudgetNoncriticalRatio: 0.0010,
		HardenedBudgetRatio:          0.0100,
	}
}

type tomlGateConfig struct {
	PacketID                     string   `toml:"packet_id"`
	StrictBudgetCritical         int      `toml:"strict_budget_critical"`
	StrictBudgetNoncriticalRatio float64  `toml:"strict_budget_noncritical_ratio"`
	HardenedBudgetRatio          float64  `toml:"hardened_budget_ratio"`
	HardenedAllowlistCategories  []string `toml:"hardened_allowlist_categories"`
	OracleDegradeAllowed         bool     `toml:"oracle_degrade_allowed"`
}

type tomlGateFile struct {
	Packet []tomlGateConfig `toml:"packet"`
}

func (t tomlGateConfig) convert() GateConfig {
	return GateConfig{
		PacketID:                     t.PacketID,
		StrictBudgetCritical:         t.StrictBudgetCritical,
		StrictBudgetNoncriticalRatio: t.StrictBudgetNoncriticalRatio,
		HardenedBudgetRatio:          t.HardenedBudgetRatio,
		HardenedAllowlistCategories:  t.HardenedAllowlistCategories,
		OracleDegradeAllowed:         t.OracleDegradeAllowed,
	}
}

// GateConfigSet is every packet's gate config, keyed by packet_id.
type GateConfigSet struct {
	byPacket map[string]GateConfig
}

// For looks up packetID's gate config, falling back to
// DefaultGateConfig when no entry is declared.
func (s *GateConfigSet) For(packetID string) GateConfig {
	if s != nil {
		if gc, ok := s.byPacket[packetID]; ok {
			return gc
		}
	}
	return DefaultGateConfig(packetID)
}

// ParseGateConfigs decodes a gate-config TOML document of the form:
//
//	[[packet]]
//	packet_id = "series_add"
//	strict_budget_critical = 0
//	...
func ParseGateConfigs(r io.Reader) (*GateConfigSet, error) {
	var tf tomlGateFile
	if _, err := toml.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("config: decode gate config: %w", err)
	}
	set := &GateConfigSet{byPacket: make(map[string]GateConfig, len(tf.Packet))}
	for _, p := range tf.Packet {
		set.byPacket[p.PacketID] = p.convert()
	}
	return set, nil
}

// LoadGateConfigs opens path and parses it as a gate-config TOML file.
func LoadGateConfigs(path string) (*GateConfigSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open gate config %q: %w", path, err)
	}
	defer f.Close()
	return ParseGateConfigs(f)
}

// SuiteConfig is the harness-level TOML document naming the fixture
// root and default oracle mode.
type SuiteConfig struct {
	FixtureRoot string `toml:"fixture_root"`
	OracleMode  string `toml:"oracle_mode"`
}

// LoadSuiteConfig opens path and parses it as a suite-config TOML file.
func LoadSuiteConfig(path string) (SuiteConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return SuiteConfig{}, fmt.Errorf("config: open suite config %q: %w", path, err)
	}
	defer f.Close()
	var sc SuiteConfig
	if _, err := toml.NewDecoder(f).Decode(&sc); err != nil {
		return SuiteConfig{}, fmt.Errorf("config: decode suite config: %w", err)
	}
	return sc, nil
}
