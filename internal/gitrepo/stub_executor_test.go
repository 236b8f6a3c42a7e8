package gitrepo_test

import (
	"context"
	"strings"

	"github.com/temirov/gitagg/internal/execshell"
)

type scriptedResponse struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	responses        map[string]scriptedResponse
	recordedCommands []execshell.CommandDetails
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{responses: map[string]scriptedResponse{}}
}

func (executor *scriptedGitExecutor) respond(arguments string, standardOutput string) {
	executor.responses[arguments] = scriptedResponse{result: execshell.ExecutionResult{StandardOutput: standardOutput}}
}

func (executor *scriptedGitExecutor) fail(arguments string, failure error) {
	executor.responses[arguments] = scriptedResponse{err: failure}
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	response := executor.responses[strings.Join(details.Arguments, " ")]
	return response.result, response.err
}

func (executor *scriptedGitExecutor) recordedArguments() []string {
	arguments := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		arguments = append(arguments, strings.Join(details.Arguments, " "))
	}
	return arguments
}
