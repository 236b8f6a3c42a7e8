package aggregator_test

import (
	"context"
	"strings"

	"github.com/temirov/gitagg/internal/execshell"
)

type recordedCommand struct {
	name             execshell.CommandName
	arguments        string
	workingDirectory string
	standardInput    string
}

type scriptedCommandExecutor struct {
	outputs  map[string]string
	failures map[string]error
	commands []recordedCommand
}

func newScriptedCommandExecutor() *scriptedCommandExecutor {
	return &scriptedCommandExecutor{outputs: map[string]string{}, failures: map[string]error{}}
}

func (executor *scriptedCommandExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record(execshell.CommandGit, details)
}

func (executor *scriptedCommandExecutor) ExecuteShell(executionContext context.Context, script string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	details.Arguments = []string{"-c", script}
	return executor.record(execshell.CommandShell, details)
}

func (executor *scriptedCommandExecutor) ExecuteCurl(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record(execshell.CommandCurl, details)
}

func (executor *scriptedCommandExecutor) record(name execshell.CommandName, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	arguments := strings.Join(details.Arguments, " ")
	executor.commands = append(executor.commands, recordedCommand{
		name:             name,
		arguments:        arguments,
		workingDirectory: details.WorkingDirectory,
		standardInput:    string(details.StandardInput),
	})
	if failure, failing := executor.failures[arguments]; failing {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{StandardOutput: executor.outputs[arguments]}, nil
}

func (executor *scriptedCommandExecutor) gitArguments() []string {
	arguments := []string{}
	for _, command := range executor.commands {
		if command.name == execshell.CommandGit {
			arguments = append(arguments, command.arguments)
		}
	}
	return arguments
}

func (executor *scriptedCommandExecutor) commandsNamed(name execshell.CommandName) []recordedCommand {
	matching := []recordedCommand{}
	for _, command := range executor.commands {
		if command.name == name {
			matching = append(matching, command)
		}
	}
	return matching
}

type staticInspector struct {
	revision string
}

func (inspector staticInspector) HeadRevision(string) (string, error) {
	return inspector.revision, nil
}
