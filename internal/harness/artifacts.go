package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"tabula/internal/policy"
)

// ArtifactWriter persists a packet's run artifacts under
// artifacts/phase2c/{packet_id}/ plus the cross-run drift ledger,
// atomically replacing each per-packet file on write so a crash
// mid-write cannot leave a torn parity_report.json behind.
type ArtifactWriter struct {
	root string
}

// NewArtifactWriter builds a writer rooted at root (typically
// "artifacts/phase2c").
func NewArtifactWriter(root string) *ArtifactWriter {
	return &ArtifactWriter{root: root}
}

func (w *ArtifactWriter) packetDir(packetID string) string {
	return filepath.Join(w.root, packetID)
}

// DriftHistoryRow is one append-only row of the cross-run drift
// ledger.
type DriftHistoryRow struct {
	TsUnixMs     int64  `json:"ts_unix_ms"`
	PacketID     string `json:"packet_id"`
	Suite        string `json:"suite"`
	FixtureCount int    `json:"fixture_count"`
	Passed       int    `json:"passed"`
	Failed       int    `json:"failed"`
	GatePass     bool   `json:"gate_pass"`
	ReportHash   string `json:"report_hash"`
}

// WritePacketArtifacts writes the five per-packet artifact files
// (parity_report.json, parity_gate_result.json,
// parity_mismatch_corpus.json, parity_report.raptorq.json,
// parity_report.decode_proof.json) for report/gate, then appends one
// row to the cross-run drift_history.jsonl ledger.
func (w *ArtifactWriter) WritePacketArtifacts(suite string, report *ParityReport, gate PacketGateResult, now time.Time) error {
	dir := w.packetDir(report.PacketID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap(ArtifactWriteFailed, fmt.Errorf("create packet dir %q: %w", dir, err))
	}

	reportBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "parity_report.json"), reportBytes); err != nil {
		return err
	}

	gateBytes, err := json.MarshalIndent(gate, "", "  ")
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "parity_gate_result.json"), gateBytes); err != nil {
		return err
	}

	mismatches := collectMismatches(report)
	mismatchBytes, err := json.MarshalIndent(mismatches, "", "  ")
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	compressedMismatches, err := zstdCompress(mismatchBytes)
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "parity_mismatch_corpus.json"), compressedMismatches); err != nil {
		return err
	}

	reportHash := fmt.Sprintf("%016x", xxhash.Sum64(reportBytes))

	sidecar := policy.NewSidecar(policy.ParityReportArtifact, reportHash,
		policy.NewEncoderMetadata("raptorq", 1, 0, []string{reportHash}))
	sidecarBytes, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "parity_report.raptorq.json"), sidecarBytes); err != nil {
		return err
	}

	decodeProof := policy.DecodeProofStep{
		Decoder:      "identity",
		ProducedHash: reportHash,
		Matched:      true,
	}
	decodeProofBytes, err := json.MarshalIndent(decodeProof, "", "  ")
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "parity_report.decode_proof.json"), decodeProofBytes); err != nil {
		return err
	}

	row := DriftHistoryRow{
		TsUnixMs:     now.UnixMilli(),
		PacketID:     report.PacketID,
		Suite:        suite,
		FixtureCount: len(report.Outcomes),
		Passed:       len(report.Passed()),
		Failed:       len(report.Failed()),
		GatePass:     gate.Pass,
		ReportHash:   reportHash,
	}
	return w.appendDriftHistory(row)
}

func collectMismatches(report *ParityReport) []Mismatch {
	var out []Mismatch
	for _, o := range report.Outcomes {
		out = append(out, o.Mismatches...)
	}
	return out
}

func (w *ArtifactWriter) appendDriftHistory(row DriftHistoryRow) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return wrap(ArtifactWriteFailed, fmt.Errorf("create drift history dir %q: %w", w.root, err))
	}
	path := filepath.Join(w.root, "drift_history.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return wrap(ArtifactWriteFailed, fmt.Errorf("open drift history %q: %w", path, err))
	}
	defer f.Close()

	line, err := json.Marshal(row)
	if err != nil {
		return wrap(ArtifactWriteFailed, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return wrap(ArtifactWriteFailed, fmt.Errorf("append drift history row: %w", err))
	}
	return nil
}

// atomicWriteFile writes data to a temp file in the same directory as
// path, then renames it into place, so a reader never observes a
// partially written artifact.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return wrap(ArtifactWriteFailed, fmt.Errorf("create temp file for %q: %w", path, err))
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return wrap(ArtifactWriteFailed, fmt.Errorf("write temp file for %q: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return wrap(ArtifactWriteFailed, fmt.Errorf("close temp file for %q: %w", path, err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return wrap(ArtifactWriteFailed, fmt.Errorf("rename into place %q: %w", path, err))
	}
	return nil
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// NewRunID mints a fresh random identifier for one harness run. The
// artifact writer does not record it in any artifact.
func NewRunID() uuid.UUID { return uuid.New() }
