package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vk/brickrun/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("brickrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Brickrun - runs block-based programs: actors, scripts and bricks described in HCL.

Usage:
  brickrun [options] [PROGRAM_PATH]

Arguments:
  PROGRAM_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	programFlag := flagSet.String("program", "", "Path to the program file or directory.")
	pFlag := flagSet.String("p", "", "Path to the program file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fpsFlag := flagSet.Int("fps", app.DefaultFPS, "Ticks per second.")
	durationFlag := flagSet.Duration("duration", 0, "Stop the program after this long. 0 runs until the program is idle.")
	virtualFlag := flagSet.Bool("virtual", false, "Run on a simulated clock as fast as possible. Requires -duration.")
	seedFlag := flagSet.String("seed", "", "Seed for rand(). Empty picks a random seed.")
	publishURLFlag := flagSet.String("publish-url", "", "socket.io endpoint that receives engine events.")
	publishNSFlag := flagSet.String("publish-namespace", "", "socket.io namespace for published events.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	switch {
	case *programFlag != "":
		path = *programFlag
	case *pFlag != "":
		path = *pFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	slog.Debug("Program path determined.", "path", path)

	if path == "" {
		slog.Debug("No program path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	var seed *uint64
	if *seedFlag != "" {
		n, err := strconv.ParseUint(*seedFlag, 10, 64)
		if err != nil {
			return nil, false, usageError("invalid seed %q: must be a non-negative integer", *seedFlag)
		}
		seed = &n
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ProgramPath:      path,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		HealthcheckPort:  *healthPortFlag,
		FPS:              *fpsFlag,
		Duration:         *durationFlag,
		Virtual:          *virtualFlag,
		Seed:             seed,
		PublishURL:       *publishURLFlag,
		PublishNamespace: *publishNSFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
