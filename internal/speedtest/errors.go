package speedtest

import "errors"

var (
	// ErrToolMissing means the speedtest binary is not on PATH. Fatal at startup.
	ErrToolMissing = errors.New("speedtest CLI not found")

	// ErrWrongToolVariant means the binary on PATH is not the official Ookla
	// build. Fatal at startup.
	ErrWrongToolVariant = errors.New("non-official speedtest CLI detected")

	// ErrTimeout means a measurement exceeded the configured wall-clock limit.
	ErrTimeout = errors.New("speedtest timeout")

	// ErrProcessFailed means the CLI exited with a non-zero status.
	ErrProcessFailed = errors.New("speedtest command failed")

	// ErrInvalidOutput means the CLI output was not parseable JSON.
	ErrInvalidOutput = errors.New("invalid JSON output from speedtest")

	// ErrReportedFailure means the CLI emitted a payload with an error field,
	// regardless of exit status.
	ErrReportedFailure = errors.New("speedtest reported an error")

	// ErrUnexpectedType means the payload's type field was not a result marker.
	ErrUnexpectedType = errors.New("unexpected speedtest output type")
)
