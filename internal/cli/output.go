package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // query or database failure
	ExitCommandError = 2 // bad input: invalid spec, unknown parameter
)

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, dberr.ErrEngineFailure):
		return ExitFailure
	case errors.Is(err, dberr.ErrInvalidSpec),
		errors.Is(err, dberr.ErrUnknownParameter),
		errors.Is(err, dberr.ErrPositionMismatch),
		errors.Is(err, dberr.ErrUnsupported):
		return ExitCommandError
	}
	return ExitFailure
}

// response is the JSON envelope written with --format json.
type response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

type outputFormatter struct {
	format string
	w      io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) *outputFormatter {
	return &outputFormatter{format: opts.Format, w: w}
}

// Success writes data as JSON, or calls text to print it.
func (f *outputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.format == "json" {
		return f.writeJSON(response{Status: "ok", Data: data})
	}
	return text(f.w)
}

// Error writes err in the JSON envelope and returns it, so the exit code
// still reflects the failure.
func (f *outputFormatter) Error(err error) error {
	if f.format == "json" {
		_ = f.writeJSON(response{Status: "error", Error: err.Error()})
	}
	return err
}

func (f *outputFormatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput returns the file named by args[0], or stdin when no file is
// given or the name is "-".
func readInput(in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}
