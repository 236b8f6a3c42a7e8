package aggregate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/pullrequests"
)

const (
	showClosedCommandUseConstant              = "show-closed-prs"
	showClosedCommandShortDescriptionConstant = "List merged GitHub pull requests that are no longer open"
	showClosedCommandLongDescriptionConstant  = "show-closed-prs prints every pull request referenced as refs/pull/<number>/head on a github.com remote whose state is closed, with its merge status and labels."
	showAllCommandUseConstant                 = "show-all-prs"
	showAllCommandShortDescriptionConstant    = "List every merged GitHub pull request grouped by state"
	showAllCommandLongDescriptionConstant     = "show-all-prs prints every pull request referenced as refs/pull/<number>/head on a github.com remote, grouped by state."
	pullRequestsErrorTemplateConstant         = "pull request inspection failed: %w"
	pullRequestsArgumentsTemplateConstant     = "%s does not accept positional arguments"
)

// PullRequestScope selects which pull requests a command prints.
type PullRequestScope int

// Supported scopes.
const (
	PullRequestScopeClosed PullRequestScope = iota
	PullRequestScopeAll
)

// PullRequestsCommandBuilder assembles show-closed-prs and show-all-prs.
type PullRequestsCommandBuilder struct {
	RepositoryCommandDependencies
	Scope PullRequestScope
	// Client overrides the GitHub REST client, which otherwise authenticates with GH_TOKEN, GITHUB_TOKEN or GITHUB_API_TOKEN.
	Client pullrequests.PullRequestFetcher
	// HTTPClient is used by the default GitHub client when set.
	HTTPClient *http.Client
}

// Build constructs the command for the configured scope.
func (builder *PullRequestsCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   showClosedCommandUseConstant,
		Short: showClosedCommandShortDescriptionConstant,
		Long:  showClosedCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	if builder.Scope == PullRequestScopeAll {
		command.Use = showAllCommandUseConstant
		command.Short = showAllCommandShortDescriptionConstant
		command.Long = showAllCommandLongDescriptionConstant
	}
	bindRepositoryFlags(command, builder.configuration())
	return command, nil
}

func (builder *PullRequestsCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(pullRequestsArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	descriptors, loadError := builder.loadDescriptors(configuration)
	if loadError != nil {
		return loadError
	}

	inspector, inspectorError := pullrequests.NewInspector(builder.resolveClient(), command.OutOrStdout())
	if inspectorError != nil {
		return inspectorError
	}

	unit := func(executionContext context.Context, unitLogger *zap.Logger, descriptor aggregator.Descriptor) error {
		if builder.Scope == PullRequestScopeAll {
			return inspector.ShowAll(executionContext, unitLogger, descriptor)
		}
		return inspector.ShowClosed(executionContext, unitLogger, descriptor)
	}

	if runError := builder.runCoordinated(command, logger, descriptors, configuration, unit); runError != nil {
		return fmt.Errorf(pullRequestsErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *PullRequestsCommandBuilder) resolveClient() pullrequests.PullRequestFetcher {
	if builder.Client != nil {
		return builder.Client
	}
	lookup := builder.LookupEnvironment
	if lookup == nil {
		lookup = defaultEnvironmentLookup
	}
	token, _ := pullrequests.ResolveToken(pullrequests.EnvironmentLookup(lookup))
	return pullrequests.NewClient(pullrequests.ClientOptions{HTTPClient: builder.HTTPClient, Token: token})
}
