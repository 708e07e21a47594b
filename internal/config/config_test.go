package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGateConfigMatchesSpecDefaults(t *testing.T) {
	gc := DefaultGateConfig("series_add")
	assert.Equal(t, "series_add", gc.PacketID)
	assert.Equal(t, 0, gc.StrictBudgetCritical)
	assert.Equal(t, 0.0010, gc.StrictBudgetNoncriticalRatio)
	assert.Equal(t, 0.0100, gc.HardenedBudgetRatio)
}

func TestParseGateConfigsDecodesPackets(t *testing.T) {
	doc := `
[[packet]]
packet_id = "series_add"
strict_budget_critical = 0
strict_budget_noncritical_ratio = 0.002
hardened_budget_ratio = 0.05
hardened_allowlist_categories = ["Nullness", "Type"]
oracle_degrade_allowed = true

[[packet]]
packet_id = "series_join"
strict_budget_critical = 1
`
	set, err := ParseGateConfigs(strings.NewReader(doc))
	require.NoError(t, err)

	add := set.For("series_add")
	assert.Equal(t, 0.002, add.StrictBudgetNoncriticalRatio)
	assert.Equal(t, 0.05, add.HardenedBudgetRatio)
	assert.ElementsMatch(t, []string{"Nullness", "Type"}, add.HardenedAllowlistCategories)
	assert.True(t, add.OracleDegradeAllowed)

	join := set.For("series_join")
	assert.Equal(t, 1, join.StrictBudgetCritical)
}

func TestGateConfigSetForFallsBackToDefault(t *testing.T) {
	set, err := ParseGateConfigs(strings.NewReader(`[[packet]]
packet_id = "series_add"
`))
	require.NoError(t, err)

	unknown := set.For("groupby_sum")
	assert.Equal(t, DefaultGateConfig("groupby_sum"), unknown)
}

func TestGateConfigSetForNilReceiver(t *testing.T) {
	var set *GateConfigSet
	gc := set.For("series_add")
	assert.Equal(t, DefaultGateConfig("series_add"), gc)
}

func TestParseGateConfigsRejectsMalformedTOML(t *testing.T) {
	_, err := ParseGateConfigs(strings.NewReader("not = [valid"))
	require.Error(t, err)
}

func TestLoadSuiteConfigDecodesFields(t *testing.T) {
	doc := `
fixture_root = "testdata/fixtures"
oracle_mode = "live"
`
	tmp := t.TempDir() + "/suite.toml"
	require.NoError(t, os.WriteFile(tmp, []byte(doc), 0o644))

	sc, err := LoadSuiteConfig(tmp)
	require.NoError(t, err)
	assert.Equal(t, "testdata/fixtures", sc.FixtureRoot)
	assert.Equal(t, "live", sc.OracleMode)
}

func TestLoadGateConfigsMissingFile(t *testing.T) {
	_, err := LoadGateConfigs("/nonexistent/path/gate.toml")
	require.Error(t, err)
}
