package harness

import (
	"encoding/json"

	"tabula/internal/policy"
)

// Operation is the closed enum of fixture operations this harness
// knows how to execute (spec §4.9), generalized from
// internal/core.OperationKind's string-enum-of-kinds shape.
type Operation string

const (
	OpSeriesAdd           Operation = "series_add"
	OpSeriesSub           Operation = "series_sub"
	OpSeriesJoin          Operation = "series_join"
	OpMergeDataFrames     Operation = "merge_dataframes"
	OpGroupBySum          Operation = "groupby_sum"
	OpGroupByMean         Operation = "groupby_mean"
	OpIndexAlignUnion     Operation = "index_align_union"
	OpIndexAlignInner     Operation = "index_align_inner"
	OpIndexHasDuplicates  Operation = "index_has_duplicates"
	OpIndexFirstPositions Operation = "index_first_positions"
)

var supportedOperations = map[Operation]bool{
	OpSeriesAdd:           true,
	OpSeriesSub:           true,
	OpSeriesJoin:          true,
	OpMergeDataFrames:     true,
	OpGroupBySum:          true,
	OpGroupByMean:         true,
	OpIndexAlignUnion:     true,
	OpIndexAlignInner:     true,
	OpIndexHasDuplicates:  true,
	OpIndexFirstPositions: true,
}

// Valid reports whether op is a recognized operation.
func (op Operation) Valid() bool { return supportedOperations[op] }

// Mode selects the RuntimePolicy a fixture runs under.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModeHardened Mode = "hardened"
)

// ToPolicy builds the RuntimePolicy this Mode implies. Hardened
// fixtures carry no fixture-declared row cap, so the cap is left nil
// (uncapped).
func (m Mode) ToPolicy() policy.RuntimePolicy {
	if m == ModeHardened {
		return policy.NewHardened(nil)
	}
	return policy.NewStrict()
}

// Fixture is one test case: an operation, typed inputs, a mode, and
// either an expected output or an expected-error substring (spec §6).
type Fixture struct {
	PacketID              string          `json:"packet_id"`
	CaseID                string          `json:"case_id"`
	Operation             Operation       `json:"operation"`
	Mode                  Mode            `json:"mode"`
	Inputs                json.RawMessage `json:"inputs"`
	Expected              json.RawMessage `json:"expected,omitempty"`
	ExpectedErrorContains string          `json:"expected_error_contains,omitempty"`
}

// ExpectsError reports whether this fixture names an expected-error
// substring instead of an expected output.
func (f Fixture) ExpectsError() bool { return f.ExpectedErrorContains != "" }

// Packet is a set of Fixtures sharing a packet_id.
type Packet struct {
	PacketID string
	Fixtures []Fixture
}

// GroupFixturesIntoPackets buckets fixtures by packet_id, preserving
// first-seen packet order and each packet's fixture order.
func GroupFixturesIntoPackets(fixtures []Fixture) (map[string]*Packet, []string) {
	byID := make(map[string]*Packet)
	var order []string
	for _, f := range fixtures {
		p, ok := byID[f.PacketID]
		if !ok {
			p = &Packet{PacketID: f.PacketID}
			byID[f.PacketID] = p
			order = append(order, f.PacketID)
		}
		p.Fixtures = append(p.Fixtures, f)
	}
	return byID, order
}
