package speedtest

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/DrC0ns0le/speedtest-exporter/internal/config"
	"github.com/DrC0ns0le/speedtest-exporter/pkg/logging"
)

const (
	binaryName     = "speedtest"
	officialBanner = "Speedtest by Ookla"
	resultType     = "result"

	installHint     = "install from https://www.speedtest.net/apps/cli"
	validateTimeout = 10 * time.Second
)

// Result is a normalized measurement extracted from the CLI's JSON output.
// The zero value doubles as the failure sentinel (Up=0).
type Result struct {
	ServerID    int
	JitterMs    float64
	PingMs      float64
	DownloadBps float64
	UploadBps   float64
	Up          int
}

// resultPayload mirrors the json-pretty output of the Ookla CLI. Error is a
// pointer so an error key is detected by presence, not by value.
type resultPayload struct {
	Type   string  `json:"type"`
	Error  *string `json:"error"`
	Server struct {
		ID int `json:"id"`
	} `json:"server"`
	Ping struct {
		Jitter  float64 `json:"jitter"`
		Latency float64 `json:"latency"`
	} `json:"ping"`
	Download struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"download"`
	Upload struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"upload"`
}

// commandRunner executes a binary and returns its captured stdout. Injected
// so tests can fake the CLI.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Runner invokes the Ookla speedtest CLI and maps its outcomes onto the
// package's error values.
type Runner struct {
	binary   string
	timeout  time.Duration
	serverID string

	run  commandRunner
	look func(string) (string, error)
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		binary:   binaryName,
		timeout:  time.Duration(cfg.Timeout) * time.Second,
		serverID: cfg.ServerID,
		run:      runCommand,
		look:     exec.LookPath,
	}
}

// Validate checks at startup that the official CLI is installed and runnable.
func (r *Runner) Validate(ctx context.Context) error {
	if _, err := r.look(r.binary); err != nil {
		return errors.Wrap(ErrToolMissing, installHint)
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	out, err := r.run(ctx, r.binary, "--version")
	if err != nil {
		return errors.Wrapf(ErrToolMissing, "running %s --version: %v", r.binary, err)
	}

	if !strings.Contains(string(out), officialBanner) {
		return errors.Wrap(ErrWrongToolVariant, installHint)
	}

	logging.Infof("speedtest CLI validated: %s", strings.TrimSpace(string(out)))
	return nil
}

// CheckVersion reports whether the CLI answers a --version probe. Used by the
// liveness route; deliberately cheaper than a full measurement.
func (r *Runner) CheckVersion(ctx context.Context) error {
	_, err := r.run(ctx, r.binary, "--version")
	return err
}

// Run performs a full measurement under the configured wall-clock timeout.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	args := []string{"--format=json-pretty", "--progress=no", "--accept-license", "--accept-gdpr"}
	if r.serverID != "" {
		args = append(args, "--server-id", r.serverID)
	}

	logging.Infof("running speedtest: %s %s", r.binary, strings.Join(args, " "))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.run(ctx, r.binary, args...)
	if ctx.Err() == context.DeadlineExceeded {
		logging.Errorf("speedtest timed out after %s", r.timeout)
		return Result{}, errors.Wrapf(ErrTimeout, "after %s", r.timeout)
	}
	if err != nil {
		// A failing run may still print a JSON error payload; surface its
		// message over the generic exit-status error.
		if msg, ok := reportedError(out); ok {
			logging.Errorf("speedtest failed: %s", msg)
			return Result{}, errors.Wrap(ErrReportedFailure, msg)
		}
		logging.Errorf("speedtest command failed: %v", err)
		return Result{}, errors.Wrap(ErrProcessFailed, err.Error())
	}

	result, err := parseResult(out)
	if err != nil {
		return Result{}, err
	}

	logging.Infof("speedtest completed - server: %d, ping: %.2fms, jitter: %.2fms, download: %.2fMbps, upload: %.2fMbps",
		result.ServerID, result.PingMs, result.JitterMs,
		BitsToMegabits(result.DownloadBps), BitsToMegabits(result.UploadBps))

	return result, nil
}

func parseResult(out []byte) (Result, error) {
	var payload resultPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return Result{}, errors.Wrap(ErrInvalidOutput, err.Error())
	}

	if payload.Error != nil {
		return Result{}, errors.Wrap(ErrReportedFailure, *payload.Error)
	}

	if payload.Type != resultType {
		return Result{}, errors.Wrapf(ErrUnexpectedType, "got %q", payload.Type)
	}

	return Result{
		ServerID:    payload.Server.ID,
		JitterMs:    payload.Ping.Jitter,
		PingMs:      payload.Ping.Latency,
		DownloadBps: BytesToBits(payload.Download.Bandwidth),
		UploadBps:   BytesToBits(payload.Upload.Bandwidth),
		Up:          1,
	}, nil
}

func reportedError(out []byte) (string, bool) {
	var payload resultPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return "", false
	}
	if payload.Error == nil {
		return "", false
	}
	return *payload.Error, true
}
