package harness

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePacketArtifactsProducesAllFiles(t *testing.T) {
	root := t.TempDir()
	writer := NewArtifactWriter(root)

	report := &ParityReport{
		PacketID: "series_add",
		Outcomes: []FixtureOutcome{
			{CaseID: "c1", Operation: OpSeriesAdd, Mode: ModeStrict, Passed: true},
		},
	}
	gate := PacketGateResult{PacketID: "series_add", Pass: true, FixtureCount: 1, Passed: 1}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writer.WritePacketArtifacts("nightly", report, gate, now))

	dir := filepath.Join(root, "series_add")
	for _, name := range []string{
		"parity_report.json",
		"parity_gate_result.json",
		"parity_mismatch_corpus.json",
		"parity_report.raptorq.json",
		"parity_report.decode_proof.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected artifact %s to exist", name)
	}

	historyPath := filepath.Join(root, "drift_history.jsonl")
	f, err := os.Open(historyPath)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var row DriftHistoryRow
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
	assert.Equal(t, "series_add", row.PacketID)
	assert.Equal(t, "nightly", row.Suite)
	assert.True(t, row.GatePass)
	assert.NotEmpty(t, row.ReportHash)
}

func TestWritePacketArtifactsAppendsDriftHistory(t *testing.T) {
	root := t.TempDir()
	writer := NewArtifactWriter(root)
	report := &ParityReport{PacketID: "p1"}
	gate := PacketGateResult{PacketID: "p1", Pass: true}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, writer.WritePacketArtifacts("s", report, gate, now))
	require.NoError(t, writer.WritePacketArtifacts("s", report, gate, now.Add(time.Hour)))

	historyPath := filepath.Join(root, "drift_history.jsonl")
	data, err := os.ReadFile(historyPath)
	require.NoError(t, err)

	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			lines++
		}
	}
	assert.Equal(t, 2, lines)
}
