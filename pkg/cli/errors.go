package cli

import (
	"errors"
	"fmt"

	"mercator-hq/harbor/pkg/config"
	"mercator-hq/harbor/pkg/server"
)

// Exit codes returned by the harbor command.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitBind    = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error to the process exit code. Configuration problems
// and bind failures get their own codes so scripts can tell them apart.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	var validation config.ValidationError
	if errors.As(err, &cfgErr) || errors.As(err, &validation) {
		return ExitConfig
	}

	var bindErr *server.BindError
	if errors.As(err, &bindErr) {
		return ExitBind
	}

	return ExitFailure
}
