package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	gitExecutableNameConstant = "git"

	commandStartedLogMessageConstant      = "shell command started"
	commandCompletedLogMessageConstant    = "shell command completed"
	commandFailedLogMessageConstant       = "shell command execution failed"
	logFieldCommandNameConstant           = "command_name"
	logFieldArgumentsConstant             = "arguments"
	logFieldWorkingDirectoryConstant      = "working_directory"
	logFieldExitCodeConstant              = "exit_code"
	commandFailedErrorTemplateConstant    = "%s command failed with exit code %d%s"
	commandFailedStandardErrorTemplate    = ": %s"
	commandExecutionErrorTemplateConstant = "%s command could not be executed: %v"
)

// CommandName identifies a supported executable.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(gitExecutableNameConstant)

// Initialization errors returned by NewShellExecutor.
var (
	ErrLoggerNotConfigured        = errors.New("shell executor requires a logger")
	ErrCommandRunnerNotConfigured = errors.New("shell executor requires a command runner")
)

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that completed with a non-zero exit code.
// The execution result remains available so callers can inspect captured output.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error implements the error interface.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(commandFailedStandardErrorTemplate, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error implements the error interface.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor coordinates command execution, structured logging, and lifecycle notification.
type ShellExecutor struct {
	logger         *zap.Logger
	commandRunner  CommandRunner
	eventObservers []CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor around the provided logger, runner, and optional observers.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, eventObservers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	retainedObservers := make([]CommandEventObserver, 0, len(eventObservers))
	for _, eventObserver := range eventObservers {
		if eventObserver != nil {
			retainedObservers = append(retainedObservers, eventObserver)
		}
	}

	return &ShellExecutor{logger: logger, commandRunner: commandRunner, eventObservers: retainedObservers}, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the supplied command through the configured runner.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	return executor.execute(executionContext, command)
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
	executor.notifyCommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(
			commandFailedLogMessageConstant,
			zap.String(logFieldCommandNameConstant, string(command.Name)),
			zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
			zap.Error(runError),
		)
		executor.notifyCommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)
	executor.notifyCommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

func (executor *ShellExecutor) notifyCommandStarted(command ShellCommand) {
	for _, eventObserver := range executor.eventObservers {
		eventObserver.CommandStarted(command)
	}
}

func (executor *ShellExecutor) notifyCommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, eventObserver := range executor.eventObservers {
		eventObserver.CommandCompleted(command, result)
	}
}

func (executor *ShellExecutor) notifyCommandExecutionFailed(command ShellCommand, failure error) {
	for _, eventObserver := range executor.eventObservers {
		eventObserver.CommandExecutionFailed(command, failure)
	}
}
