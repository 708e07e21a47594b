package harness

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// OracleMode selects how an OracleClient resolves a fixture's expected
// output.
type OracleMode string

const (
	// OracleFixture trusts the fixture's own Expected field, no
	// external process involved.
	OracleFixture OracleMode = "fixture"
	// OracleLive shells out to a reference implementation subprocess
	// and asks it to evaluate the same operation, the way Applier
	// shells out to a live database connection.
	OracleLive OracleMode = "live"
)

type oracleRequest struct {
	Operation Operation       `json:"operation"`
	Inputs    json.RawMessage `json:"inputs"`
}

type oracleResponse struct {
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// OracleClient resolves a fixture's expected output, either by trusting
// the fixture directly or by consulting a live reference subprocess
// over newline-delimited JSON on stdin/stdout, adapted from
// internal/apply.Applier's Connect/Close-scoped external-process
// lifecycle.
type OracleClient struct {
	mode    OracleMode
	command string
	args    []string
	log     *zap.SugaredLogger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader
}

// NewOracleClient builds a client for mode. command/args are only used
// in OracleLive mode.
func NewOracleClient(mode OracleMode, command string, args []string, log *zap.SugaredLogger) *OracleClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OracleClient{mode: mode, command: command, args: args, log: log}
}

// Connect starts the reference subprocess in OracleLive mode. It is a
// no-op in OracleFixture mode.
func (o *OracleClient) Connect(ctx context.Context) error {
	if o.mode != OracleLive {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	cmd := exec.CommandContext(ctx, o.command, o.args...)
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return wrap(OracleUnavailable, err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return wrap(OracleUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return wrap(OracleUnavailable, fmt.Errorf("start oracle subprocess %q: %w", o.command, err))
	}

	o.cmd = cmd
	o.stdin = bufio.NewWriter(stdinPipe)
	o.stdout = bufio.NewReader(stdoutPipe)
	o.log.Infow("oracle subprocess connected", "command", o.command)
	return nil
}

// Close terminates the reference subprocess, if one is running.
func (o *OracleClient) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cmd == nil || o.cmd.Process == nil {
		return nil
	}
	err := o.cmd.Wait()
	o.cmd = nil
	return err
}

// Invoke resolves f's expected output. In OracleFixture mode this
// returns f.Expected verbatim. In OracleLive mode it round-trips the
// operation and inputs to the reference subprocess and returns its
// response.
func (o *OracleClient) Invoke(ctx context.Context, f Fixture) (json.RawMessage, error) {
	if o.mode != OracleLive {
		return f.Expected, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stdin == nil || o.stdout == nil {
		return nil, newError(OracleUnavailable, "oracle subprocess not connected")
	}

	req := oracleRequest{Operation: f.Operation, Inputs: f.Inputs}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, wrap(OracleUnavailable, err)
	}
	if _, err := o.stdin.Write(append(payload, '\n')); err != nil {
		return nil, wrap(OracleUnavailable, fmt.Errorf("write oracle request: %w", err))
	}
	if err := o.stdin.Flush(); err != nil {
		return nil, wrap(OracleUnavailable, fmt.Errorf("flush oracle request: %w", err))
	}

	line, err := o.stdout.ReadBytes('\n')
	if err != nil {
		return nil, wrap(OracleUnavailable, fmt.Errorf("read oracle response: %w", err))
	}

	var resp oracleResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, wrap(OracleUnavailable, fmt.Errorf("decode oracle response: %w", err))
	}
	if resp.Error != "" {
		return nil, newError(OracleUnavailable, "oracle reported error: %s", resp.Error)
	}
	return resp.Output, nil
}
