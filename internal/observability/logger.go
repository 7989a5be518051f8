package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"

	"github.com/tarkovmcp/tarkovmcp/internal/config"
)

var (
	// CLILogger serves one-shot commands such as call, query and doctor.
	CLILogger *logging.Logger

	// ServerLogger serves the MCP server. It never writes to stdout, which
	// carries the stdio transport.
	ServerLogger *logging.Logger
)

// Logger returns ServerLogger when serve has set it up, else CLILogger.
func Logger() *logging.Logger {
	if ServerLogger != nil {
		return ServerLogger
	}
	return CLILogger
}

// InitCLILogger sets CLILogger to the simple profile, at DEBUG when verbose.
func InitCLILogger(serviceName string, verbose bool) {
	logger := mustLogger(logging.NewCLI(serviceName))
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
}

// InitServerLogger sets ServerLogger to structured JSON at logLevel.
func InitServerLogger(serviceName string, logLevel string, namespace ...string) {
	ns := ""
	if len(namespace) > 0 {
		ns = namespace[0]
	}
	InitServeLogger(serviceName, config.LoggingConfig{Level: logLevel, Profile: "structured"}, ns)
}

// InitServeLogger sets ServerLogger from the logging section. The simple
// profile renders console lines, any other profile JSON with correlation ids.
func InitServeLogger(serviceName string, cfg config.LoggingConfig, namespace string) {
	simple := strings.EqualFold(strings.TrimSpace(cfg.Profile), "simple")

	loggerConfig := &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(cfg.Level),
		Service:      serviceName,
		Environment:  "production",
		StaticFields: map[string]any{},
		Sinks:        []logging.SinkConfig{stderrSink("json")},
	}
	if namespace != "" {
		loggerConfig.StaticFields["namespace"] = namespace
	}

	if simple {
		loggerConfig.Profile = logging.ProfileSimple
		loggerConfig.Sinks = []logging.SinkConfig{stderrSink("console")}
	} else {
		loggerConfig.Middleware = []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		}
		loggerConfig.EnableCaller = true
		loggerConfig.EnableStacktrace = true
	}

	ServerLogger = mustLogger(logging.New(loggerConfig))
}

func stderrSink(format string) logging.SinkConfig {
	return logging.SinkConfig{
		Type:    "console",
		Format:  format,
		Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
	}
}

// mustLogger exits with ExitConfigInvalid when a logger cannot be built.
// Nothing else can report the failure at that point.
func mustLogger(logger *logging.Logger, err error) *logging.Logger {
	if err == nil {
		return logger
	}
	code := foundry.ExitConfigInvalid
	fmt.Fprintf(os.Stderr, "FATAL: logger initialization failed: %v\n", err)
	if info, ok := foundry.GetExitCodeInfo(code); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	}
	os.Exit(int(code))
	return nil
}

var logLevels = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// parseLogLevel maps a config level to a gofulmen severity, defaulting to INFO.
func parseLogLevel(levelStr string) string {
	if level, ok := logLevels[strings.ToLower(strings.TrimSpace(levelStr))]; ok {
		return level
	}
	return "INFO"
}
