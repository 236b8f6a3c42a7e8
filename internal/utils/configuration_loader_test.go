package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitagg/internal/utils"
)

const (
	testEnvironmentPrefixConstant              = "TESTGITAGG"
	testLogLevelKeyConstant                    = "common.log_level"
	testLogLevelEnvironmentVariableConstant    = "TESTGITAGG_COMMON_LOG_LEVEL"
	testJobsEnvironmentVariableConstant        = "TESTGITAGG_TOOLS_AGGREGATE_JOBS"
	testDefaultLogLevelConstant                = "info"
	testConfigFileNameConstant                 = "config.yaml"
	testConfigContentTemplateConstant          = "common:\n  log_level: %s\n"
	testConfigurationNameConstant              = "config"
	testConfigurationTypeConstant              = "yaml"
	testUserConfigurationDirectoryNameConstant = "gitagg"
)

type configurationFixture struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Tools struct {
		Aggregate struct {
			Jobs  int      `mapstructure:"jobs"`
			Repos []string `mapstructure:"repos"`
		} `mapstructure:"aggregate"`
	} `mapstructure:"tools"`
}

func newFixtureLoader(searchPaths ...string) *utils.ConfigurationLoader {
	return utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		Name:              testConfigurationNameConstant,
		Type:              testConfigurationTypeConstant,
		EnvironmentPrefix: testEnvironmentPrefixConstant,
		SearchPaths:       searchPaths,
	})
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{name: "defaults", expectedLogLevel: testDefaultLogLevelConstant},
		{name: "embedded_over_defaults", embeddedLogLevel: "debug", expectedLogLevel: "debug"},
		{name: "file_over_embedded", embeddedLogLevel: "debug", fileLogLevel: "warn", expectedLogLevel: "warn"},
		{name: "environment_over_file", embeddedLogLevel: "debug", fileLogLevel: "warn", environmentLogLevel: "error", expectedLogLevel: "error"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			configurationDirectory := subTest.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(configurationDirectory, testConfigFileNameConstant)
				require.NoError(subTest, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)), 0o600))
			}
			if len(testCase.environmentLogLevel) > 0 {
				subTest.Setenv(testLogLevelEnvironmentVariableConstant, testCase.environmentLogLevel)
			}

			configurationLoader := newFixtureLoader(configurationDirectory)
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)
			require.NoError(subTest, loadError)
			require.Equal(subTest, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(subTest, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDecodesToolSettings(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("tools:\n  aggregate:\n    repos: first.yaml,second.yaml\n"), 0o600))
	testInstance.Setenv(testJobsEnvironmentVariableConstant, "4")

	loadedConfiguration := configurationFixture{}
	_, loadError := newFixtureLoader().LoadConfiguration(configurationFilePath, map[string]any{"tools.aggregate.jobs": 1}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 4, loadedConfiguration.Tools.Aggregate.Jobs)
	require.Equal(testInstance, []string{"first.yaml", "second.yaml"}, loadedConfiguration.Tools.Aggregate.Repos)
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	loadedConfiguration := configurationFixture{}
	_, loadError := newFixtureLoader().LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"), nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
	require.Contains(testInstance, loadError.Error(), "failed to read configuration")
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectoryPath)
	testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectoryPath, "config"))

	userConfigurationBaseDirectory, directoryError := os.UserConfigDir()
	require.NoError(testInstance, directoryError)
	userConfigurationDirectory := filepath.Join(userConfigurationBaseDirectory, testUserConfigurationDirectoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(userConfigurationDirectory, 0o755))

	searchPaths := utils.DefaultSearchPaths(testUserConfigurationDirectoryNameConstant)
	require.Equal(testInstance, []string{".", userConfigurationDirectory}, searchPaths)

	configurationFilePath := filepath.Join(userConfigurationDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, "debug")), 0o600))

	emptyWorkingDirectory := testInstance.TempDir()
	loadedConfiguration := configurationFixture{}
	metadata, loadError := newFixtureLoader(emptyWorkingDirectory, userConfigurationDirectory).LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}
