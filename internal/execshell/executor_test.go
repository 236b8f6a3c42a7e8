package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testGitWrapperCaseNameConstant               = "git_wrapper"
	testShellWrapperCaseNameConstant             = "shell_wrapper"
	testCurlWrapperCaseNameConstant              = "curl_wrapper"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testShellScriptConstant                      = "make build"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type countingObserver struct {
	started   int
	completed int
	failed    int
}

func (observer *countingObserver) CommandStarted(execshell.ShellCommand) {
	observer.started++
}

func (observer *countingObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	observer.completed++
}

func (observer *countingObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	observer.failed++
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
		expectedLevel    zapcore.Level
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
			expectedLevel:    zapcore.DebugLevel,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
			expectedLevel:    zapcore.ErrorLevel,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
			expectedLevel:    zapcore.ErrorLevel,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			loggedEntries := observerLogs.All()
			require.Len(testInstance, loggedEntries, testCase.expectedLogCount)
			lastEntry := loggedEntries[len(loggedEntries)-1]
			require.Equal(testInstance, testCase.expectedLevel, lastEntry.Level)
			require.Equal(testInstance, "git --version", lastEntry.ContextMap()["command"])
		})
	}
}

func TestCommandFailedErrorIncludesCommandLine(testInstance *testing.T) {
	commandError := execshell.CommandFailedError{
		Command: execshell.ShellCommand{
			Name:    execshell.CommandGit,
			Details: execshell.CommandDetails{Arguments: []string{"fetch", "origin", "main"}},
		},
		Result: execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: couldn't find remote ref main\n"},
	}

	require.Equal(testInstance, "git fetch origin main exited with code 128: fatal: couldn't find remote ref main", commandError.Error())
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	testCases := []struct {
		name              string
		invoke            func(executor *execshell.ShellExecutor) error
		expectedCommand   execshell.CommandName
		expectedArguments []string
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"status"}})
				return executionError
			},
			expectedCommand:   execshell.CommandGit,
			expectedArguments: []string{"status"},
		},
		{
			name: testShellWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteShell(context.Background(), testShellScriptConstant, execshell.CommandDetails{WorkingDirectory: testWorkingDirectoryConstant})
				return executionError
			},
			expectedCommand:   execshell.CommandShell,
			expectedArguments: []string{"-c", testShellScriptConstant},
		},
		{
			name: testCurlWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteCurl(context.Background(), execshell.CommandDetails{Arguments: []string{"-s", "https://example.com/fix.patch"}})
				return executionError
			},
			expectedCommand:   execshell.CommandCurl,
			expectedArguments: []string{"-s", "https://example.com/fix.patch"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{
				executionResult: execshell.ExecutionResult{ExitCode: 1},
			}

			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			recordedCommand := recordingRunner.recordedCommands[0]
			require.Equal(testInstance, testCase.expectedCommand, recordedCommand.Name)
			require.Equal(testInstance, testCase.expectedArguments, recordedCommand.Details.Arguments)
		})
	}
}

func TestShellExecutorUsesSuppliedObservers(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	firstObserver := &countingObserver{}
	secondObserver := &countingObserver{}

	executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), &recordingCommandRunner{}, firstObserver, nil, secondObserver)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"status"}})
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, 1, firstObserver.started)
	require.Equal(testInstance, 1, firstObserver.completed)
	require.Equal(testInstance, 1, secondObserver.started)
	require.Equal(testInstance, 1, secondObserver.completed)
	require.Zero(testInstance, observerLogs.Len())
}

func TestStructuredCommandEventLoggerReportsShellOutput(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		commandName           execshell.CommandName
		result                execshell.ExecutionResult
		expectOutputEntry     bool
		expectedOutput        string
		expectedStandardError string
	}{
		{
			name:                  "shell_with_output",
			commandName:           execshell.CommandShell,
			result:                execshell.ExecutionResult{StandardOutput: "built 3 modules\n", StandardError: "warning: cache cold\n"},
			expectOutputEntry:     true,
			expectedOutput:        "built 3 modules",
			expectedStandardError: "warning: cache cold",
		},
		{
			name:        "shell_without_output",
			commandName: execshell.CommandShell,
			result:      execshell.ExecutionResult{StandardOutput: "\n"},
		},
		{
			name:        "git_output_stays_quiet",
			commandName: execshell.CommandGit,
			result:      execshell.ExecutionResult{StandardOutput: "abc123\n"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.InfoLevel)
			eventLogger := execshell.NewStructuredCommandEventLogger(zap.New(observerCore))

			command := execshell.ShellCommand{
				Name:    testCase.commandName,
				Details: execshell.CommandDetails{Arguments: []string{"-c", testShellScriptConstant}, WorkingDirectory: testWorkingDirectoryConstant},
			}
			eventLogger.CommandCompleted(command, testCase.result)

			outputEntries := observerLogs.FilterMessage("shell command output").All()
			if !testCase.expectOutputEntry {
				require.Empty(testInstance, outputEntries)
				return
			}
			require.Len(testInstance, outputEntries, 1)
			require.Equal(testInstance, zapcore.InfoLevel, outputEntries[0].Level)
			fields := outputEntries[0].ContextMap()
			require.Equal(testInstance, testCase.expectedOutput, fields["stdout"])
			require.Equal(testInstance, testCase.expectedStandardError, fields["stderr"])
			require.Equal(testInstance, testWorkingDirectoryConstant, fields["working_directory"])
		})
	}
}
