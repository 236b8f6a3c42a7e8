package aggregate

import "strings"

const (
	defaultRepositoryConfigurationPathConstant = "repos.yaml"
	defaultJobsConstant                        = 1
	repositoryConfigurationKeyConstant         = "repos"
	jobsKeyConstant                            = "jobs"
	directoryPatternKeyConstant                = "dirmatch"
	pushKeyConstant                            = "push"
	forceKeyConstant                           = "force"
	expandEnvironmentKeyConstant               = "expand_env"
	environmentFileKeyConstant                 = "env_file"
	configurationKeySeparatorConstant          = "."
)

// CommandConfiguration captures the tools.aggregate settings shared by the aggregation and pull request commands.
type CommandConfiguration struct {
	RepositoryConfigurationPath string `mapstructure:"repos"`
	Jobs                        int    `mapstructure:"jobs"`
	DirectoryPattern            string `mapstructure:"dirmatch"`
	Push                        bool   `mapstructure:"push"`
	Force                       bool   `mapstructure:"force"`
	ExpandEnvironment           bool   `mapstructure:"expand_env"`
	EnvironmentFile             string `mapstructure:"env_file"`
}

// DefaultCommandConfiguration reads repos.yaml and processes one repository at a time.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryConfigurationPath: defaultRepositoryConfigurationPathConstant,
		Jobs:                        defaultJobsConstant,
	}
}

// DefaultConfigurationValues returns viper defaults rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + repositoryConfigurationKeyConstant: defaults.RepositoryConfigurationPath,
		prefix + configurationKeySeparatorConstant + jobsKeyConstant:                    defaults.Jobs,
		prefix + configurationKeySeparatorConstant + directoryPatternKeyConstant:        defaults.DirectoryPattern,
		prefix + configurationKeySeparatorConstant + pushKeyConstant:                    defaults.Push,
		prefix + configurationKeySeparatorConstant + forceKeyConstant:                   defaults.Force,
		prefix + configurationKeySeparatorConstant + expandEnvironmentKeyConstant:       defaults.ExpandEnvironment,
		prefix + configurationKeySeparatorConstant + environmentFileKeyConstant:         defaults.EnvironmentFile,
	}
}

// sanitize trims paths and falls back to defaults for unusable values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryConfigurationPath = strings.TrimSpace(configuration.RepositoryConfigurationPath)
	if len(sanitized.RepositoryConfigurationPath) == 0 {
		sanitized.RepositoryConfigurationPath = defaultRepositoryConfigurationPathConstant
	}
	if sanitized.Jobs < 1 {
		sanitized.Jobs = defaultJobsConstant
	}
	sanitized.DirectoryPattern = strings.TrimSpace(configuration.DirectoryPattern)
	sanitized.EnvironmentFile = strings.TrimSpace(configuration.EnvironmentFile)
	return sanitized
}
