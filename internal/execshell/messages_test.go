package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForFetchIncludesRemoteAndReferences(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "--depth", "1", "origin", "feature"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Fetching feature from origin in /workspace/repo", message)
}

func TestBuildStartedMessageForFetchWithoutReferenceDescribesRemote(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"fetch", "oca"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Fetching from oca in /workspace/repo", message)
}

func TestBuildMessagesDescribeAggregationCommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name     string
		command  ShellCommand
		expected string
	}{
		{
			name: "clone",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments: []string{"clone", "--filter=blob:none", "-b", "8.0", "--depth", "1", "https://github.com/OCA/web.git", "/src/web"},
			}},
			expected: "Cloning https://github.com/OCA/web.git into /src/web",
		},
		{
			name: "checkout",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"checkout", "-B", "aggregated"},
				WorkingDirectory: "/src/web",
			}},
			expected: "Switching /src/web to branch aggregated",
		},
		{
			name: "pull",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"pull", "--ff", "--no-rebase", "--no-edit", "--quiet", "oca", "refs/pull/105/head"},
				WorkingDirectory: "/src/web",
			}},
			expected: "Merging refs/pull/105/head from oca into /src/web",
		},
		{
			name: "reset",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"reset", "--quiet", "--hard", "0123abcd"},
				WorkingDirectory: "/src/web",
			}},
			expected: "Resetting /src/web to 0123abcd",
		},
		{
			name: "remote_add",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"remote", "add", "oca", "https://github.com/OCA/web.git"},
				WorkingDirectory: "/src/web",
			}},
			expected: "Adding remote oca (https://github.com/OCA/web.git) in /src/web",
		},
		{
			name: "shell",
			command: ShellCommand{Name: CommandShell, Details: CommandDetails{
				Arguments:        []string{"-c", "make"},
				WorkingDirectory: "/src/web",
			}},
			expected: "Running \"make\" in /src/web",
		},
		{
			name: "unknown_subcommand",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments: []string{"gc"},
			}},
			expected: "Running git gc",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestBuildFailureMessagesIncludeExitCodeAndStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandGit, Details: CommandDetails{
		Arguments:        []string{"push", "-f", "origin", "aggregated"},
		WorkingDirectory: "/src/web",
	}}

	failureMessage := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "rejected\n"})
	require.Equal(t, "Failed to push aggregated to origin from /src/web (exit code 1: rejected)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found"))
	require.Equal(t, "Unable to push aggregated to origin from /src/web: executable file not found", executionFailureMessage)
}
