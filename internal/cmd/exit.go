package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
	"github.com/tarkovmcp/tarkovmcp/internal/core/gateway"
	errwrap "github.com/tarkovmcp/tarkovmcp/internal/errors"
)

// osExit is swapped in tests.
var osExit = os.Exit

// ExitWithCode logs err with the foundry metadata for exitCode and exits.
// A nil logger writes the same details to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, known := foundry.GetExitCodeInfo(exitCode)
	if !known || logger == nil {
		writeFailure(os.Stderr, exitCode, msg, err)
		osExit(int(exitCode))
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	fields = append(fields, envelopeFields(err)...)
	logger.Error(msg, fields...)
	osExit(info.Code)
}

// ExitWithCodeStderr is ExitWithCode for failures before logging is set up.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	writeFailure(os.Stderr, exitCode, msg, err)
	osExit(int(exitCode))
}

func envelopeFields(err error) []zap.Field {
	var envelope *errors.ErrorEnvelope
	if !stderrors.As(err, &envelope) || envelope == nil {
		return []zap.Field{zap.Error(err)}
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if cause, ok := envelope.Original.(error); ok {
		fields = append(fields, zap.Error(cause))
	}
	return fields
}

// writeFailure renders a failure for a terminal. MCP clients read stdout, so
// this only ever targets stderr.
func writeFailure(w io.Writer, exitCode foundry.ExitCode, msg string, err error) {
	var envelope *errors.ErrorEnvelope
	switch {
	case err == nil:
		fmt.Fprintf(w, "FATAL: %s\n", msg)
	case stderrors.As(err, &envelope) && envelope != nil:
		fmt.Fprintf(w, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		if cause, ok := envelope.Original.(error); ok {
			fmt.Fprintf(w, "  cause: %v\n", cause)
		}
	default:
		fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	}

	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fmt.Fprintf(w, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	} else {
		fmt.Fprintf(w, "Exit Code: %d\n", exitCode)
	}
}

// ExitCodeFor maps a command failure to a foundry exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		switch envelope.Code {
		case errwrap.CodeConfigInvalid, errwrap.CodeNotInitialized:
			return foundry.ExitConfigInvalid
		case errwrap.CodeTransportFailure, errwrap.CodeUpstreamFailure, errwrap.CodeServiceUnavailable, errwrap.CodeTimeout:
			return foundry.ExitExternalServiceUnavailable
		}
	}

	switch gateway.KindOf(err) {
	case gateway.KindConfiguration, gateway.KindNotInitialized:
		return foundry.ExitConfigInvalid
	case gateway.KindTransport, gateway.KindUpstream, gateway.KindCancelled:
		return foundry.ExitExternalServiceUnavailable
	}

	switch {
	case stderrors.Is(err, config.ErrInvalid):
		return foundry.ExitConfigInvalid
	case stderrors.Is(err, os.ErrNotExist):
		return foundry.ExitFileNotFound
	default:
		return foundry.ExitFailure
	}
}
