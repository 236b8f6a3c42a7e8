package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	gitStatusSubcommandConstant          = "status"
	gitPorcelainFlagConstant             = "--porcelain"
	gitRemoteSubcommandConstant          = "remote"
	gitRemoteVerboseFlagConstant         = "-v"
	gitRemoteAddSubcommandConstant       = "add"
	gitRemoteRemoveSubcommandConstant    = "rm"
	gitCheckoutSubcommandConstant        = "checkout"
	gitCheckoutResetBranchFlagConstant   = "-B"
	gitResetSubcommandConstant           = "reset"
	gitResetHardFlagConstant             = "--hard"
	gitQuietFlagConstant                 = "--quiet"
	gitCleanSubcommandConstant           = "clean"
	gitCleanForceDirectoriesFlagConstant = "-ffd"
	gitRemoteListingCommandLabelConstant = "git remote -v"
	remoteFetchDirectionConstant         = "(fetch)"
	remotePushDirectionConstant          = "(push)"
	remoteListingFieldSeparatorConstant  = "\t"
	inconsistentRemoteTemplateConstant   = "remote %s has fetch url %s and push url %s"
	statusFailureTemplateConstant        = "failed to read working tree status of %s: %w"
	remoteListingFailureTemplateConstant = "failed to list remotes of %s: %w"
	remoteRemovalFailureTemplateConstant = "failed to remove remote %s from %s: %w"
	remoteAddFailureTemplateConstant     = "failed to add remote %s to %s: %w"
	checkoutFailureTemplateConstant      = "failed to check out branch %s in %s: %w"
	resetFailureTemplateConstant         = "failed to reset %s to %s: %w"
	cleanFailureTemplateConstant         = "failed to clean %s: %w"
)

// RemoteChange reports what EnsureRemote did.
type RemoteChange int

// Remote changes applied by EnsureRemote.
const (
	RemoteUnchanged RemoteChange = iota
	RemoteAdded
	RemoteReplaced
)

// InconsistentRemoteError reports a remote whose fetch and push URLs differ.
type InconsistentRemoteError struct {
	Name     string
	FetchURL string
	PushURL  string
}

// Error describes the mismatched URLs.
func (remoteError InconsistentRemoteError) Error() string {
	return fmt.Sprintf(inconsistentRemoteTemplateConstant, remoteError.Name, remoteError.FetchURL, remoteError.PushURL)
}

// RepositoryManager inspects and mutates the local state of a working directory through git porcelain.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// WorktreeStatus returns the porcelain status of the working tree.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return "", fmt.Errorf(statusFailureTemplateConstant, repositoryPath, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// IsDirty reports whether the working tree has any tracked or untracked changes.
func (manager *RepositoryManager) IsDirty(executionContext context.Context, repositoryPath string) (bool, error) {
	status, statusError := manager.WorktreeStatus(executionContext, repositoryPath)
	if statusError != nil {
		return false, statusError
	}
	return len(status) > 0, nil
}

// CurrentRemotes maps remote names to their URL.
func (manager *RepositoryManager) CurrentRemotes(executionContext context.Context, repositoryPath string) (map[string]string, error) {
	executionResult, executionError := manager.executeGit(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteVerboseFlagConstant)
	if executionError != nil {
		return nil, fmt.Errorf(remoteListingFailureTemplateConstant, repositoryPath, executionError)
	}
	return ParseRemoteListing(executionResult.StandardOutput)
}

// ParseRemoteListing interprets git remote -v output.
// Each remote must report the same URL for fetch and push.
func ParseRemoteListing(listing string) (map[string]string, error) {
	fetchURLs := map[string]string{}
	pushURLs := map[string]string{}
	remoteSeen := map[string]struct{}{}
	remoteOrder := []string{}

	for _, line := range strings.Split(listing, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		name, remainder, found := strings.Cut(trimmedLine, remoteListingFieldSeparatorConstant)
		if !found {
			return nil, RemoteListingParseError{Command: gitRemoteListingCommandLabelConstant, Line: line}
		}
		urlFields := strings.Fields(remainder)
		if len(urlFields) == 0 {
			return nil, RemoteListingParseError{Command: gitRemoteListingCommandLabelConstant, Line: line}
		}
		remoteURL := urlFields[0]
		direction := ""
		if len(urlFields) > 1 {
			direction = urlFields[len(urlFields)-1]
		}

		if _, seen := remoteSeen[name]; !seen {
			remoteSeen[name] = struct{}{}
			remoteOrder = append(remoteOrder, name)
		}
		switch direction {
		case remotePushDirectionConstant:
			pushURLs[name] = remoteURL
		case remoteFetchDirectionConstant:
			fetchURLs[name] = remoteURL
		default:
			fetchURLs[name] = remoteURL
			pushURLs[name] = remoteURL
		}
	}

	remotes := make(map[string]string, len(remoteOrder))
	for _, name := range remoteOrder {
		fetchURL, hasFetch := fetchURLs[name]
		pushURL, hasPush := pushURLs[name]
		switch {
		case hasFetch && hasPush && fetchURL != pushURL:
			return nil, InconsistentRemoteError{Name: name, FetchURL: fetchURL, PushURL: pushURL}
		case hasFetch:
			remotes[name] = fetchURL
		default:
			remotes[name] = pushURL
		}
	}
	return remotes, nil
}

// EnsureRemote makes the named remote point at remoteURL, replacing a differing definition.
func (manager *RepositoryManager) EnsureRemote(executionContext context.Context, repositoryPath string, name string, remoteURL string) (RemoteChange, error) {
	existingRemotes, listingError := manager.CurrentRemotes(executionContext, repositoryPath)
	if listingError != nil {
		return RemoteUnchanged, listingError
	}

	existingURL, exists := existingRemotes[name]
	if exists && existingURL == remoteURL {
		return RemoteUnchanged, nil
	}

	change := RemoteAdded
	if exists {
		if _, removalError := manager.executeGit(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRemoveSubcommandConstant, name); removalError != nil {
			return RemoteUnchanged, fmt.Errorf(remoteRemovalFailureTemplateConstant, name, repositoryPath, removalError)
		}
		change = RemoteReplaced
	}

	if _, addError := manager.executeGit(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, name, remoteURL); addError != nil {
		return RemoteUnchanged, fmt.Errorf(remoteAddFailureTemplateConstant, name, repositoryPath, addError)
	}
	return change, nil
}

// CheckoutOrCreateBranch creates the branch at HEAD or resets it to HEAD, and checks it out.
func (manager *RepositoryManager) CheckoutOrCreateBranch(executionContext context.Context, repositoryPath string, branch string) error {
	if _, checkoutError := manager.executeGit(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitCheckoutResetBranchFlagConstant, branch); checkoutError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branch, repositoryPath, checkoutError)
	}
	return nil
}

// ResetHardAndClean moves the current branch to revision and removes untracked files and directories.
func (manager *RepositoryManager) ResetHardAndClean(executionContext context.Context, repositoryPath string, revision string, quiet bool) error {
	resetArguments := []string{gitResetSubcommandConstant}
	if quiet {
		resetArguments = append(resetArguments, gitQuietFlagConstant)
	}
	resetArguments = append(resetArguments, gitResetHardFlagConstant, revision)

	if _, resetError := manager.executeGit(executionContext, repositoryPath, resetArguments...); resetError != nil {
		return fmt.Errorf(resetFailureTemplateConstant, repositoryPath, revision, resetError)
	}
	if _, cleanError := manager.executeGit(executionContext, repositoryPath, gitCleanSubcommandConstant, gitCleanForceDirectoriesFlagConstant); cleanError != nil {
		return fmt.Errorf(cleanFailureTemplateConstant, repositoryPath, cleanError)
	}
	return nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: nonInteractiveEnvironment(),
	})
}
