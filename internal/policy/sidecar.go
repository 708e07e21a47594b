package policy

import "github.com/google/uuid"

// ArtifactType enumerates the durable artifact kinds the harness wraps
// in an erasure sidecar envelope.
type ArtifactType uint8

const (
	ParityReportArtifact ArtifactType = iota
	MismatchCorpusArtifact
	BenchmarkBaselineArtifact
)

func (t ArtifactType) String() string {
	switch t {
	case ParityReportArtifact:
		return "ParityReport"
	case MismatchCorpusArtifact:
		return "MismatchCorpus"
	case BenchmarkBaselineArtifact:
		return "BenchmarkBaseline"
	default:
		return "Unknown"
	}
}

// SentinelSourceHash marks a placeholder envelope, built before the
// real artifact bytes were ready or encodable, so consumers can
// distinguish it from a genuinely encoded one.
const SentinelSourceHash = "00000000000000000000000000000000000000000000000000000000000000"

// ScrubStatus reports whether an envelope's payload has been verified
// free of partial-write corruption.
type ScrubStatus uint8

const (
	ScrubPending ScrubStatus = iota
	ScrubClean
	ScrubCorrupt
)

// DecodeProofStep is one link in an envelope's decode-proof chain: a
// record that a decode pass against this envelope's encoded payload
// reproduced the expected source hash.
type DecodeProofStep struct {
	Decoder    string
	ProducedHash string
	Matched    bool
}

// EncoderMetadata describes the erasure-coding scheme an envelope's
// payload was encoded with: k data shards, repair (parity) shards, the
// resulting overhead ratio, and a hash per encoded symbol so a consumer
// can verify individual shards without re-deriving them.
type EncoderMetadata struct {
	Scheme        string
	DataShards    int
	ParityShards  int
	OverheadRatio float64
	SymbolHashes  []string
}

// NewEncoderMetadata fills OverheadRatio from the shard counts, so
// callers constructing a real (non-placeholder) sidecar don't have to
// compute it by hand. overhead_ratio is parity/data; zero data shards
// yields a zero ratio rather than dividing by zero.
func NewEncoderMetadata(scheme string, dataShards, parityShards int, symbolHashes []string) EncoderMetadata {
	ratio := 0.0
	if dataShards > 0 {
		ratio = float64(parityShards) / float64(dataShards)
	}
	return EncoderMetadata{
		Scheme:        scheme,
		DataShards:    dataShards,
		ParityShards:  parityShards,
		OverheadRatio: ratio,
		SymbolHashes:  symbolHashes,
	}
}

// ErasureSidecar wraps a durable artifact with enough metadata for a
// consumer to verify it independent of the producing process.
type ErasureSidecar struct {
	ArtifactID   uuid.UUID
	ArtifactType ArtifactType
	SourceHash   string
	Encoder      EncoderMetadata
	Scrub        ScrubStatus
	DecodeProof  []DecodeProofStep
}

// NewPlaceholderSidecar builds an envelope with the sentinel source
// hash, used when an artifact's real bytes aren't available yet.
func NewPlaceholderSidecar(artifactType ArtifactType) ErasureSidecar {
	return ErasureSidecar{
		ArtifactID:   uuid.New(),
		ArtifactType: artifactType,
		SourceHash:   SentinelSourceHash,
		Scrub:        ScrubPending,
	}
}

// NewSidecar builds an envelope around a real, already-hashed payload.
func NewSidecar(artifactType ArtifactType, sourceHash string, encoder EncoderMetadata) ErasureSidecar {
	return ErasureSidecar{
		ArtifactID:   uuid.New(),
		ArtifactType: artifactType,
		SourceHash:   sourceHash,
		Encoder:      encoder,
		Scrub:        ScrubClean,
	}
}

// IsPlaceholder reports whether this envelope carries the sentinel hash.
func (s ErasureSidecar) IsPlaceholder() bool { return s.SourceHash == SentinelSourceHash }
