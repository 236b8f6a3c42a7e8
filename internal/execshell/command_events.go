package execshell

import (
	"strings"

	"go.uber.org/zap"
)

const (
	commandStartedLogMessageConstant         = "executing command"
	commandCompletedLogMessageConstant       = "command completed"
	commandFailedLogMessageConstant          = "command failed"
	commandExecutionFailedLogMessageConstant = "command execution failed"
	shellOutputLogMessageConstant            = "shell command output"
	logFieldCommandConstant                  = "command"
	logFieldWorkingDirectoryConstant         = "working_directory"
	logFieldExitCodeConstant                 = "exit_code"
	logFieldStandardErrorConstant            = "stderr"
	logFieldStandardOutputConstant           = "stdout"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// StructuredCommandEventLogger records command lifecycle events as structured zap entries.
// Starts and successes are debug entries; failures are errors carrying the exact command line.
// Output of successful shell commands is reported at info so post hooks stay visible.
type StructuredCommandEventLogger struct {
	logger *zap.Logger
}

// NewStructuredCommandEventLogger constructs a structured observer backed by logger.
func NewStructuredCommandEventLogger(logger *zap.Logger) *StructuredCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructuredCommandEventLogger{logger: logger}
}

// CommandStarted implements CommandEventObserver.
func (eventLogger *StructuredCommandEventLogger) CommandStarted(command ShellCommand) {
	eventLogger.logger.Debug(commandStartedLogMessageConstant, commandFields(command)...)
}

// CommandCompleted implements CommandEventObserver.
func (eventLogger *StructuredCommandEventLogger) CommandCompleted(command ShellCommand, result ExecutionResult) {
	fields := append(commandFields(command), zap.Int(logFieldExitCodeConstant, result.ExitCode))
	if result.ExitCode == 0 {
		eventLogger.logger.Debug(commandCompletedLogMessageConstant, fields...)
		if HasShellOutput(command, result) {
			eventLogger.logger.Info(shellOutputLogMessageConstant,
				append(commandFields(command),
					zap.String(logFieldStandardOutputConstant, strings.TrimRight(result.StandardOutput, "\n")),
					zap.String(logFieldStandardErrorConstant, strings.TrimRight(result.StandardError, "\n")),
				)...,
			)
		}
		return
	}
	fields = append(fields, zap.String(logFieldStandardErrorConstant, result.StandardError))
	eventLogger.logger.Error(commandFailedLogMessageConstant, fields...)
}

// CommandExecutionFailed implements CommandEventObserver.
func (eventLogger *StructuredCommandEventLogger) CommandExecutionFailed(command ShellCommand, failure error) {
	fields := append(commandFields(command), zap.Error(failure))
	eventLogger.logger.Error(commandExecutionFailedLogMessageConstant, fields...)
}

// HasShellOutput reports whether a sh -c command printed anything worth surfacing.
func HasShellOutput(command ShellCommand, result ExecutionResult) bool {
	if command.Name != CommandShell {
		return false
	}
	return len(strings.TrimSpace(result.StandardOutput)) > 0 || len(strings.TrimSpace(result.StandardError)) > 0
}

func commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandConstant, command.String()),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}

type compositeCommandEventObserver []CommandEventObserver

func (observers compositeCommandEventObserver) CommandStarted(command ShellCommand) {
	for _, observer := range observers {
		observer.CommandStarted(command)
	}
}

func (observers compositeCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range observers {
		observer.CommandCompleted(command, result)
	}
}

func (observers compositeCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range observers {
		observer.CommandExecutionFailed(command, failure)
	}
}
