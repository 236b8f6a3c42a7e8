package aggregate

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/coordinator"
	"github.com/temirov/gitagg/internal/execshell"
	"github.com/temirov/gitagg/internal/repoconfig"
	"github.com/temirov/gitagg/internal/ui"
)

const (
	flagRepositoryConfigurationNameConstant      = "repos"
	flagRepositoryConfigurationShorthandConstant = "c"
	flagRepositoryConfigurationUsageConstant     = "Repository aggregation file (YAML or JSON)"
	flagJobsNameConstant                         = "jobs"
	flagJobsShorthandConstant                    = "j"
	flagJobsUsageConstant                        = "Number of repositories processed in parallel"
	flagDirectoryPatternNameConstant             = "dirmatch"
	flagDirectoryPatternShorthandConstant        = "d"
	flagDirectoryPatternUsageConstant            = "Only process working directories matching this shell pattern"
	flagExpandEnvironmentNameConstant            = "expand-env"
	flagExpandEnvironmentShorthandConstant       = "e"
	flagExpandEnvironmentUsageConstant           = "Expand $VAR and ${VAR} in the repository file"
	flagEnvironmentFileNameConstant              = "env-file"
	flagEnvironmentFileUsageConstant             = "Dotenv file supplying variables for --expand-env"
	flagPushNameConstant                         = "push"
	flagPushShorthandConstant                    = "p"
	flagPushUsageConstant                        = "Force-push each aggregated branch to its target remote"
	flagForceNameConstant                        = "force"
	flagForceShorthandConstant                   = "f"
	flagForceUsageConstant                       = "Discard uncommitted changes in working directories"
	runFinishedMessageConstant                   = "Run finished"
	logFieldSucceededConstant                    = "succeeded"
	logFieldFailedConstant                       = "failed"
	logFieldSkippedConstant                      = "skipped"
	logFieldNotStartedConstant                   = "not_started"
	logFieldRunIdentifierConstant                = "run_id"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the tools.aggregate settings loaded by the application.
type ConfigurationProvider func() CommandConfiguration

// EnvironmentLookup resolves process environment variables.
type EnvironmentLookup func(name string) (string, bool)

// RepositoryCommandDependencies are shared by every command that iterates the repository file.
type RepositoryCommandDependencies struct {
	LoggerProvider LoggerProvider
	// ConsoleLoggerProvider returns the message-only logger used for human-readable command narration.
	// A nil provider or logger keeps structured command events.
	ConsoleLoggerProvider LoggerProvider
	ConfigurationProvider ConfigurationProvider
	// QuietCommandsProvider reports whether git output should be reduced with --quiet.
	QuietCommandsProvider func() bool
	Runner                execshell.CommandRunner
	LookupEnvironment     EnvironmentLookup
	// WorkingDirectory anchors relative paths in the repository file; empty means the process directory.
	WorkingDirectory string
}

func bindRepositoryFlags(command *cobra.Command, defaults CommandConfiguration) {
	flagSet := command.Flags()
	flagSet.StringP(flagRepositoryConfigurationNameConstant, flagRepositoryConfigurationShorthandConstant, defaults.RepositoryConfigurationPath, flagRepositoryConfigurationUsageConstant)
	flagSet.IntP(flagJobsNameConstant, flagJobsShorthandConstant, defaults.Jobs, flagJobsUsageConstant)
	flagSet.StringP(flagDirectoryPatternNameConstant, flagDirectoryPatternShorthandConstant, defaults.DirectoryPattern, flagDirectoryPatternUsageConstant)
	flagSet.BoolP(flagExpandEnvironmentNameConstant, flagExpandEnvironmentShorthandConstant, defaults.ExpandEnvironment, flagExpandEnvironmentUsageConstant)
	flagSet.String(flagEnvironmentFileNameConstant, defaults.EnvironmentFile, flagEnvironmentFileUsageConstant)
}

func (dependencies RepositoryCommandDependencies) configuration() CommandConfiguration {
	if dependencies.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return dependencies.ConfigurationProvider()
}

// resolveConfiguration overlays explicitly set flags on the configured values.
func (dependencies RepositoryCommandDependencies) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := dependencies.configuration()
	flagSet := command.Flags()
	if flagSet.Changed(flagRepositoryConfigurationNameConstant) {
		configuration.RepositoryConfigurationPath, _ = flagSet.GetString(flagRepositoryConfigurationNameConstant)
	}
	if flagSet.Changed(flagJobsNameConstant) {
		configuration.Jobs, _ = flagSet.GetInt(flagJobsNameConstant)
	}
	if flagSet.Changed(flagDirectoryPatternNameConstant) {
		configuration.DirectoryPattern, _ = flagSet.GetString(flagDirectoryPatternNameConstant)
	}
	if flagSet.Changed(flagExpandEnvironmentNameConstant) {
		configuration.ExpandEnvironment, _ = flagSet.GetBool(flagExpandEnvironmentNameConstant)
	}
	if flagSet.Changed(flagEnvironmentFileNameConstant) {
		configuration.EnvironmentFile, _ = flagSet.GetString(flagEnvironmentFileNameConstant)
	}
	if flagSet.Lookup(flagPushNameConstant) != nil && flagSet.Changed(flagPushNameConstant) {
		configuration.Push, _ = flagSet.GetBool(flagPushNameConstant)
	}
	if flagSet.Lookup(flagForceNameConstant) != nil && flagSet.Changed(flagForceNameConstant) {
		configuration.Force, _ = flagSet.GetBool(flagForceNameConstant)
	}
	return configuration.sanitize()
}

func (dependencies RepositoryCommandDependencies) resolveLogger() *zap.Logger {
	if dependencies.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := dependencies.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (dependencies RepositoryCommandDependencies) quietCommands() bool {
	if dependencies.QuietCommandsProvider == nil {
		return true
	}
	return dependencies.QuietCommandsProvider()
}

// newExecutor builds an executor reporting through logger, or through the console narrator when one is configured.
func (dependencies RepositoryCommandDependencies) newExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	runner := dependencies.Runner
	if runner == nil {
		runner = execshell.NewOSCommandRunner()
	}
	var observers []execshell.CommandEventObserver
	if dependencies.ConsoleLoggerProvider != nil {
		if consoleLogger := dependencies.ConsoleLoggerProvider(); consoleLogger != nil {
			observers = append(observers, ui.NewConsoleCommandEventLogger(consoleLogger))
		}
	}
	return execshell.NewShellExecutor(logger, runner, observers...)
}

func (dependencies RepositoryCommandDependencies) loadDescriptors(configuration CommandConfiguration) ([]aggregator.Descriptor, error) {
	loaderDependencies := repoconfig.Dependencies{}
	if dependencies.LookupEnvironment != nil {
		loaderDependencies.LookupEnvironment = repoconfig.EnvironmentLookup(dependencies.LookupEnvironment)
	}
	return repoconfig.NewLoader(loaderDependencies).Load(repoconfig.LoadOptions{
		Path:              configuration.RepositoryConfigurationPath,
		ExpandEnvironment: configuration.ExpandEnvironment,
		EnvironmentFile:   configuration.EnvironmentFile,
		Force:             configuration.Force,
		BaseDirectory:     dependencies.baseDirectory(),
	})
}

func (dependencies RepositoryCommandDependencies) baseDirectory() string {
	if len(dependencies.WorkingDirectory) > 0 {
		return dependencies.WorkingDirectory
	}
	if workingDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		return workingDirectory
	}
	return ""
}

// runCoordinated applies unit to the selected descriptors until interrupted by SIGINT or SIGTERM.
func (dependencies RepositoryCommandDependencies) runCoordinated(command *cobra.Command, logger *zap.Logger, descriptors []aggregator.Descriptor, configuration CommandConfiguration, unit coordinator.UnitFunc) error {
	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	signalContext, stopSignals := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	report, runError := coordinator.New(logger).Run(signalContext, descriptors, coordinator.Options{
		Jobs:             configuration.Jobs,
		DirectoryPattern: configuration.DirectoryPattern,
		BaseDirectory:    dependencies.baseDirectory(),
	}, unit)

	logger.Info(runFinishedMessageConstant,
		zap.String(logFieldRunIdentifierConstant, report.RunIdentifier),
		zap.Int(logFieldSucceededConstant, len(report.Succeeded)),
		zap.Int(logFieldFailedConstant, len(report.Failed)),
		zap.Int(logFieldSkippedConstant, len(report.Skipped)),
		zap.Int(logFieldNotStartedConstant, len(report.NotStarted)),
	)
	return runError
}

var defaultEnvironmentLookup EnvironmentLookup = os.LookupEnv
