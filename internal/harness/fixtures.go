package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadFixtures reads every fixture file under
// {fixtureRoot}/packets/{packet_snake}_*.json (spec §6's fixture file
// format: one JSON record per fixture).
func LoadFixtures(fixtureRoot string) ([]Fixture, error) {
	pattern := filepath.Join(fixtureRoot, "packets", "*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, newError(FixtureMalformed, "glob fixture files under %q: %v", pattern, err)
	}

	fixtures := make([]Fixture, 0, len(paths))
	for _, path := range paths {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, newError(FixtureMalformed, "read fixture file %q: %v", path, rerr)
		}
		var f Fixture
		if uerr := json.Unmarshal(data, &f); uerr != nil {
			return nil, newError(FixtureMalformed, "decode fixture file %q: %v", path, uerr)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}
