// Package main contains the cli implementation of the conformance
// harness driver. It uses cobra for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tabula/internal/config"
	"tabula/internal/harness"
	"tabula/internal/policy"
)

type runFlags struct {
	fixtureRoot     string
	gateConfigPath  string
	artifactRoot    string
	suite           string
	writeArtifacts  bool
	requireGreen    bool
	oracleMode      string
	oracleCommand   string
	conformalWindow int
	conformalAlpha  float64
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabconform",
		Short: "Differential-parity conformance harness driver",
	}

	rootCmd.AddCommand(runPacketCmd())
	rootCmd.AddCommand(runAllCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPacketCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run-packet <packet-id>",
		Short: "Run every fixture for one packet and evaluate its gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runOnePacket(args[0], flags)
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func runAllCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run every packet found under the fixture root, grouped",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAllPackets(flags)
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.fixtureRoot, "fixture-root", "", "Root directory containing packets/*.json fixtures (required)")
	cmd.Flags().StringVar(&flags.gateConfigPath, "gate-config", "", "Path to a gate-config TOML file (defaults apply when unset)")
	cmd.Flags().StringVar(&flags.artifactRoot, "artifact-root", "artifacts/phase2c", "Root directory for per-packet artifacts and drift history")
	cmd.Flags().StringVar(&flags.suite, "suite", "default", "Suite name recorded in the drift history ledger")
	cmd.Flags().BoolVar(&flags.writeArtifacts, "write-artifacts", true, "Persist per-packet artifacts and drift history rows")
	cmd.Flags().BoolVar(&flags.requireGreen, "require-green", true, "Fail closed (non-zero exit) on any packet gate failure")
	cmd.Flags().StringVar(&flags.oracleMode, "oracle-mode", "fixture", "Oracle mode: 'fixture' or 'live'")
	cmd.Flags().StringVar(&flags.oracleCommand, "oracle-command", "", "Subprocess command to invoke in live oracle mode")
	cmd.Flags().IntVar(&flags.conformalWindow, "conformal-window", 200, "Rolling calibration window size for the non-conformity coverage guard (0 disables it)")
	cmd.Flags().Float64Var(&flags.conformalAlpha, "conformal-alpha", 0.1, "Significance level for the coverage alert check")
}

func runOnePacket(packetID string, flags *runFlags) error {
	if flags.fixtureRoot == "" {
		return fmt.Errorf("--fixture-root is required")
	}

	fixtures, err := harness.LoadFixtures(flags.fixtureRoot)
	if err != nil {
		return err
	}

	byID, _ := harness.GroupFixturesIntoPackets(fixtures)
	packet, ok := byID[packetID]
	if !ok {
		return fmt.Errorf("no fixtures found for packet %q under %s", packetID, flags.fixtureRoot)
	}

	opts, cleanup, err := buildRunOptions(flags)
	if err != nil {
		return err
	}
	defer cleanup()

	report, gate, err := harness.RunPacket(context.Background(), packet, opts)
	if err != nil {
		printReport(report, gate)
		return err
	}
	printReport(report, gate)
	return nil
}

func runAllPackets(flags *runFlags) error {
	if flags.fixtureRoot == "" {
		return fmt.Errorf("--fixture-root is required")
	}

	fixtures, err := harness.LoadFixtures(flags.fixtureRoot)
	if err != nil {
		return err
	}

	byID, order := harness.GroupFixturesIntoPackets(fixtures)

	opts, cleanup, err := buildRunOptions(flags)
	if err != nil {
		return err
	}
	defer cleanup()

	reports, gates, err := harness.RunPacketsGrouped(context.Background(), byID, order, opts)
	for i, report := range reports {
		printReport(report, gates[i])
	}
	return err
}

func buildRunOptions(flags *runFlags) (harness.RunOptions, func(), error) {
	log, _ := zap.NewProduction()
	sugar := log.Sugar()

	var gateConfigs *config.GateConfigSet
	if flags.gateConfigPath != "" {
		gc, err := config.LoadGateConfigs(flags.gateConfigPath)
		if err != nil {
			return harness.RunOptions{}, func() {}, fmt.Errorf("load gate config: %w", err)
		}
		gateConfigs = gc
	}

	mode := harness.OracleFixture
	if flags.oracleMode == "live" {
		mode = harness.OracleLive
	}
	oracle := harness.NewOracleClient(mode, flags.oracleCommand, nil, sugar)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := oracle.Connect(ctx); err != nil {
		cancel()
		return harness.RunOptions{}, func() {}, fmt.Errorf("connect to oracle: %w", err)
	}

	cleanup := func() {
		cancel()
		_ = oracle.Close()
		_ = log.Sync()
	}

	opts := harness.RunOptions{
		Suite:          flags.suite,
		Oracle:         oracle,
		GateConfigs:    gateConfigs,
		Artifacts:      harness.NewArtifactWriter(flags.artifactRoot),
		WriteArtifacts: flags.writeArtifacts,
		RequireGreen:   flags.requireGreen,
		Log:            sugar,
		ConformalAlpha: flags.conformalAlpha,
	}
	if flags.conformalWindow > 0 {
		opts.Conformal = policy.NewConformalGuard(flags.conformalWindow)
		opts.CoverageAlerts = policy.NewCoverageAlertSink()
	}
	return opts, cleanup, nil
}

func printReport(report *harness.ParityReport, gate harness.PacketGateResult) {
	formatter, err := harness.NewFormatter("human")
	if err != nil {
		return
	}
	if out, ferr := formatter.FormatReport(report); ferr == nil {
		fmt.Print(out)
	}
	if out, ferr := formatter.FormatGateResult(gate); ferr == nil {
		fmt.Print(out)
	}
}
