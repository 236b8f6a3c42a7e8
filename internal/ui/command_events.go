package ui

import (
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	logFieldCommandConstant = "command"
)

// ConsoleCommandEventLogger renders command lifecycle events as sentences on a console-encoded zap logger.
// Failures keep the exact command line as a field.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Debug(eventLogger.formatter.BuildSuccessMessage(command))
		if execshell.HasShellOutput(command, result) {
			for _, output := range []string{result.StandardOutput, result.StandardError} {
				if trimmed := strings.TrimRight(output, "\n"); len(strings.TrimSpace(trimmed)) > 0 {
					eventLogger.logger.Info(trimmed)
				}
			}
		}
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildFailureMessage(command, result), zap.String(logFieldCommandConstant, command.String()))
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure), zap.String(logFieldCommandConstant, command.String()))
}
