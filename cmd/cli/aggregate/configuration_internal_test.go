package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConfigurationOverlaysChangedFlags(testInstance *testing.T) {
	configured := CommandConfiguration{
		RepositoryConfigurationPath: "configured.yaml",
		Jobs:                        3,
		DirectoryPattern:            "*/odoo",
		EnvironmentFile:             "configured.env",
	}

	testCases := []struct {
		name          string
		arguments     []string
		expectedValue CommandConfiguration
	}{
		{
			name:          "configured_values_without_flags",
			arguments:     []string{},
			expectedValue: configured,
		},
		{
			name:      "flags_override_configuration",
			arguments: []string{"-c", "flag.yaml", "-j", "5", "-d", " web ", "-e", "--env-file", "flag.env", "-p", "-f"},
			expectedValue: CommandConfiguration{
				RepositoryConfigurationPath: "flag.yaml",
				Jobs:                        5,
				DirectoryPattern:            "web",
				Push:                        true,
				Force:                       true,
				ExpandEnvironment:           true,
				EnvironmentFile:             "flag.env",
			},
		},
		{
			name:      "non_positive_jobs_fall_back_to_sequential",
			arguments: []string{"--jobs", "0", "--repos", " "},
			expectedValue: CommandConfiguration{
				RepositoryConfigurationPath: "repos.yaml",
				Jobs:                        1,
				DirectoryPattern:            "*/odoo",
				EnvironmentFile:             "configured.env",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			builder := CommandBuilder{RepositoryCommandDependencies: RepositoryCommandDependencies{
				ConfigurationProvider: func() CommandConfiguration { return configured },
			}}
			command, buildError := builder.Build()
			require.NoError(subTest, buildError)
			require.NoError(subTest, command.ParseFlags(testCase.arguments))
			require.Equal(subTest, testCase.expectedValue, builder.resolveConfiguration(command))
		})
	}
}

func TestPullRequestCommandsIgnoreMutationSettings(testInstance *testing.T) {
	builder := PullRequestsCommandBuilder{RepositoryCommandDependencies: RepositoryCommandDependencies{
		ConfigurationProvider: func() CommandConfiguration {
			return CommandConfiguration{RepositoryConfigurationPath: "repos.yaml", Jobs: 2, Push: true}
		},
	}}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Nil(testInstance, command.Flags().Lookup(flagPushNameConstant))
	require.Error(testInstance, command.ParseFlags([]string{"--push"}))
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	require.Equal(testInstance, map[string]any{
		"tools.aggregate.repos":      "repos.yaml",
		"tools.aggregate.jobs":       1,
		"tools.aggregate.dirmatch":   "",
		"tools.aggregate.push":       false,
		"tools.aggregate.force":      false,
		"tools.aggregate.expand_env": false,
		"tools.aggregate.env_file":   "",
	}, DefaultConfigurationValues("tools.aggregate"))
}
