package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/bowergrid/internal/app"
)

// Environment variables providing flag defaults.
const (
	EnvLogLevel  = "BOWERGRID_LOG_LEVEL"
	EnvLogFormat = "BOWERGRID_LOG_FORMAT"
	EnvTaskFile  = "BOWERGRID_TASKFILE"
)

// DefaultEnvFile is read when --env-file is not given. A missing default
// file is not an error.
const DefaultEnvFile = ".env"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bowergrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
bowergrid - Install bower packages and lay them out for a web project.

Usage:
  bowergrid [options] [TASK...]

Arguments:
  TASK
    A task reference such as 'default', 'bower' or 'bower:install'.
    Defaults to 'default'.

Environment:
  `+EnvLogLevel+`, `+EnvLogFormat+`, `+EnvTaskFile+`
    Defaults for --log-level, --log-format and --taskfile.

Options:
`)
		flagSet.PrintDefaults()
	}

	var taskFiles stringList
	flagSet.Var(&taskFiles, "taskfile", "Path to a task file or directory. May be repeated.")
	flagSet.Var(&taskFiles, "f", "Path to a task file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	forceFlag := flagSet.Bool("force", false, "Continue running tasks after a failure.")
	watchFlag := flagSet.Bool("watch", false, "Re-run tasks when bower.json or the task file changes.")
	envFileFlag := flagSet.String("env-file", DefaultEnvFile, "Path to a dotenv file providing environment defaults.")
	listFlag := flagSet.Bool("tasks", false, "List registered tasks and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	env, err := loadEnv(*envFileFlag, set["env-file"])
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logLevel := *logLevelFlag
	if v, ok := env[EnvLogLevel]; ok && !set["log-level"] {
		logLevel = v
	}
	logFormat := *logFormatFlag
	if v, ok := env[EnvLogFormat]; ok && !set["log-format"] {
		logFormat = v
	}
	if v, ok := env[EnvTaskFile]; ok && v != "" && len(taskFiles) == 0 {
		taskFiles = stringList{v}
	}

	config, err := app.NewConfig(app.Config{
		TaskFiles: taskFiles,
		Tasks:     flagSet.Args(),
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Force:     *forceFlag,
		Watch:     *watchFlag,
		ListTasks: *listFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// loadEnv returns the process environment layered over the dotenv file at
// path. Process variables win. A missing file is only an error when it was
// asked for explicitly.
func loadEnv(path string, explicit bool) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		env = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}
