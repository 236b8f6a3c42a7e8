package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/gitversion"
)

const (
	commandUseConstant                    = "aggregate"
	commandShortDescriptionConstant       = "Aggregate branches from several remotes into one local branch per repository"
	commandLongDescriptionConstant        = "aggregate clones or initializes every working directory declared in the repository file, fetches the declared merges, resets to the first one and pulls the others on top, then applies patches and runs post hooks."
	commandExecutionErrorTemplateConstant = "aggregation failed: %w"
	gitVersionErrorTemplateConstant       = "unable to determine git version: %w"
	unexpectedArgumentsMessageConstant    = "aggregate does not accept positional arguments"
	aggregatedMessageConstant             = "Repository aggregated"
	logFieldBranchConstant                = "branch"
	logFieldHeadConstant                  = "head"
	logFieldGitVersionConstant            = "git_version"
	gitVersionDetectedMessageConstant     = "Detected git version"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// CommandBuilder assembles the aggregate command.
type CommandBuilder struct {
	RepositoryCommandDependencies
}

// Build constructs the aggregate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := builder.configuration()
	bindRepositoryFlags(command, defaults)
	command.Flags().BoolP(flagPushNameConstant, flagPushShorthandConstant, defaults.Push, flagPushUsageConstant)
	command.Flags().BoolP(flagForceNameConstant, flagForceShorthandConstant, defaults.Force, flagForceUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	descriptors, loadError := builder.loadDescriptors(configuration)
	if loadError != nil {
		return loadError
	}

	versionExecutor, executorError := builder.newExecutor(logger)
	if executorError != nil {
		return executorError
	}
	prober, proberError := gitversion.NewProber(versionExecutor)
	if proberError != nil {
		return proberError
	}
	gitVersion, versionError := prober.Version(command.Context())
	if versionError != nil {
		return fmt.Errorf(gitVersionErrorTemplateConstant, versionError)
	}
	logger.Debug(gitVersionDetectedMessageConstant, zap.String(logFieldGitVersionConstant, gitVersion.String()))

	quietCommands := builder.quietCommands()
	unit := func(executionContext context.Context, unitLogger *zap.Logger, descriptor aggregator.Descriptor) error {
		executor, unitExecutorError := builder.newExecutor(unitLogger)
		if unitExecutorError != nil {
			return unitExecutorError
		}
		engine, engineError := aggregator.NewEngine(aggregator.Dependencies{
			Logger:        unitLogger,
			Executor:      executor,
			GitVersion:    gitVersion,
			QuietCommands: quietCommands,
		}, descriptor)
		if engineError != nil {
			return engineError
		}

		result, aggregateError := engine.Aggregate(executionContext)
		if aggregateError != nil {
			return aggregateError
		}
		unitLogger.Info(aggregatedMessageConstant,
			zap.String(logFieldBranchConstant, result.Branch),
			zap.String(logFieldHeadConstant, result.HeadRevision),
		)

		if configuration.Push {
			return engine.Push(executionContext)
		}
		return nil
	}

	if runError := builder.runCoordinated(command, logger, descriptors, configuration, unit); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}
