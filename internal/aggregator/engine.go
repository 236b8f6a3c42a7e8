package aggregator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/execshell"
	"github.com/temirov/gitagg/internal/filesystem"
	"github.com/temirov/gitagg/internal/gitrepo"
	"github.com/temirov/gitagg/internal/gitversion"
)

const (
	executorMissingMessageConstant           = "command executor not configured"
	gitCloneSubcommandConstant               = "clone"
	gitInitSubcommandConstant                = "init"
	gitFetchSubcommandConstant               = "fetch"
	gitPullSubcommandConstant                = "pull"
	gitPushSubcommandConstant                = "push"
	gitForceFlagConstant                     = "-f"
	gitBranchFlagConstant                    = "-b"
	gitPartialCloneFilterFlagConstant        = "--filter=blob:none"
	gitPullFastForwardFlagConstant           = "--ff"
	gitPullNoRebaseFlagConstant              = "--no-rebase"
	gitPullNoEditFlagConstant                = "--no-edit"
	gitQuietFlagConstant                     = "--quiet"
	gitTerminalPromptEnvironmentConstant     = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
	initializationFailureTemplateConstant    = "failed to initialize %s: %w"
	cloneBranchLookupFailureTemplateConstant = "failed to look up branch %s on %s: %w"
	branchFailureTemplateConstant            = "failed to select branch %s: %w"
	remoteSyncFailureTemplateConstant        = "failed to configure remote %s: %w"
	fetchFailureTemplateConstant             = "failed to fetch %s from %s: %w"
	baselineFailureTemplateConstant          = "failed to reset to %s %s: %w"
	mergeFailureTemplateConstant             = "failed to merge %s from %s: %w"
	postHookFailureTemplateConstant          = "post hook %q failed: %w"
	pushFailureTemplateConstant              = "failed to push %s to %s: %w"
	startAggregationMessageConstant          = "Start aggregation"
	endAggregationMessageConstant            = "End aggregation"
	cloneMessageConstant                     = "Cloning repository"
	initMessageConstant                      = "Initializing empty repository"
	remoteAddedMessageConstant               = "Added remote"
	remoteReplacedMessageConstant            = "Updated remote"
	baselineMessageConstant                  = "Resetting branch to baseline"
	mergeMessageConstant                     = "Merging"
	postHooksMessageConstant                 = "Running post hooks"
	pushMessageConstant                      = "Pushing branch"
	headRevisionUnavailableMessageConstant   = "Unable to read head revision"
	logFieldRepositoryConstant               = "repository"
	logFieldRemoteConstant                   = "remote"
	logFieldRefConstant                      = "ref"
	logFieldURLConstant                      = "url"
	logFieldBranchConstant                   = "branch"
	logFieldRevisionConstant                 = "revision"
	logFieldCountConstant                    = "count"
)

var (
	partialCloneMinimumVersion = gitversion.Version{Major: 2, Minor: 17}
	pullNoEditMinimumVersion   = gitversion.Version{Major: 1, Minor: 7, Patch: 10}
)

// ErrExecutorNotConfigured indicates the engine was constructed without a command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// CommandExecutor runs the external programs driven during aggregation.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteShell(executionContext context.Context, script string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteCurl(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager mutates the local state of a working directory.
type RepositoryManager interface {
	WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error)
	EnsureRemote(executionContext context.Context, repositoryPath string, name string, remoteURL string) (gitrepo.RemoteChange, error)
	CheckoutOrCreateBranch(executionContext context.Context, repositoryPath string, branch string) error
	ResetHardAndClean(executionContext context.Context, repositoryPath string, revision string, quiet bool) error
}

// RefResolver classifies refs on remotes.
type RefResolver interface {
	ResolveRemoteRef(executionContext context.Context, workingDirectory string, remote string, ref string) (gitrepo.RemoteRef, error)
}

// RepositoryInspector reads repository metadata for reporting.
type RepositoryInspector interface {
	HeadRevision(repositoryPath string) (string, error)
}

// Dependencies enumerates the collaborators of an Engine.
// Executor is required; the git helpers, inspector and file system default to implementations backed by it.
type Dependencies struct {
	Logger            *zap.Logger
	Executor          CommandExecutor
	RepositoryManager RepositoryManager
	RefResolver       RefResolver
	Inspector         RepositoryInspector
	FileSystem        filesystem.FileSystem
	GitVersion        gitversion.Version
	QuietCommands     bool
}

// Stage is the last step an aggregation completed.
type Stage string

// Aggregation stages in execution order.
const (
	StageUninitialized Stage = Stage("uninitialized")
	StageBranchReady   Stage = Stage("branch_ready")
	StageRemotesSynced Stage = Stage("remotes_synced")
	StageFetched       Stage = Stage("fetched")
	StageBaseline      Stage = Stage("baseline")
	StageMerged        Stage = Stage("merged")
	StagePatched       Stage = Stage("patched")
	StagePostHooksRun  Stage = Stage("post_hooks_run")
	StageDone          Stage = Stage("done")
)

// Result reports the outcome of one aggregation.
type Result struct {
	RepositoryPath string
	Branch         string
	Stage          Stage
	Created        bool
	Cloned         bool
	HeadRevision   string
}

// Engine rebuilds the target branch of a single descriptor.
// An Engine owns its working directory for the duration of a call and is not safe for concurrent use.
type Engine struct {
	logger            *zap.Logger
	executor          CommandExecutor
	repositoryManager RepositoryManager
	refResolver       RefResolver
	inspector         RepositoryInspector
	fileSystem        filesystem.FileSystem
	gitVersion        gitversion.Version
	quietCommands     bool
	descriptor        Descriptor
}

// NewEngine validates descriptor and constructs an Engine.
func NewEngine(dependencies Dependencies, descriptor Descriptor) (*Engine, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if validationError := descriptor.Validate(); validationError != nil {
		return nil, validationError
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repositoryManager := dependencies.RepositoryManager
	if repositoryManager == nil {
		defaultManager, managerError := gitrepo.NewRepositoryManager(dependencies.Executor)
		if managerError != nil {
			return nil, managerError
		}
		repositoryManager = defaultManager
	}

	refResolver := dependencies.RefResolver
	if refResolver == nil {
		defaultResolver, resolverError := gitrepo.NewRefResolver(dependencies.Executor)
		if resolverError != nil {
			return nil, resolverError
		}
		refResolver = defaultResolver
	}

	inspector := dependencies.Inspector
	if inspector == nil {
		inspector = gitrepo.NewInspector()
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}

	return &Engine{
		logger:            logger,
		executor:          dependencies.Executor,
		repositoryManager: repositoryManager,
		refResolver:       refResolver,
		inspector:         inspector,
		fileSystem:        fileSystem,
		gitVersion:        dependencies.GitVersion,
		quietCommands:     dependencies.QuietCommands,
		descriptor:        descriptor,
	}, nil
}

// Descriptor returns the descriptor the engine aggregates.
func (engine *Engine) Descriptor() Descriptor {
	return engine.descriptor
}

// Aggregate brings the working directory to the aggregated state of the descriptor.
// The returned Result records the last completed stage even when an error is returned.
func (engine *Engine) Aggregate(executionContext context.Context) (Result, error) {
	descriptor := engine.descriptor
	repositoryPath := descriptor.WorkingDirectory
	result := Result{RepositoryPath: repositoryPath, Branch: descriptor.Target.Branch, Stage: StageUninitialized}
	engine.logger.Info(startAggregationMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath))

	if !filesystem.Exists(engine.fileSystem, repositoryPath) {
		cloned, initializationError := engine.initializeRepository(executionContext)
		if initializationError != nil {
			return result, fmt.Errorf(initializationFailureTemplateConstant, repositoryPath, initializationError)
		}
		result.Created = true
		result.Cloned = cloned
	}

	if branchError := engine.repositoryManager.CheckoutOrCreateBranch(executionContext, repositoryPath, descriptor.Target.Branch); branchError != nil {
		return result, fmt.Errorf(branchFailureTemplateConstant, descriptor.Target.Branch, branchError)
	}
	result.Stage = StageBranchReady

	if remotesError := engine.synchronizeRemotes(executionContext); remotesError != nil {
		return result, remotesError
	}
	result.Stage = StageRemotesSynced

	if fetchError := engine.fetchMerges(executionContext); fetchError != nil {
		return result, fetchError
	}
	result.Stage = StageFetched

	pendingMerges := descriptor.Merges
	if !result.Created || result.Cloned {
		if baselineError := engine.resetToBaseline(executionContext, descriptor.Merges[0]); baselineError != nil {
			return result, baselineError
		}
		result.Stage = StageBaseline
		pendingMerges = descriptor.Merges[1:]
	}

	for _, merge := range pendingMerges {
		if mergeError := engine.pull(executionContext, merge); mergeError != nil {
			return result, mergeError
		}
	}
	result.Stage = StageMerged

	if patchError := engine.applyPatches(executionContext); patchError != nil {
		return result, patchError
	}
	result.Stage = StagePatched

	if hookError := engine.runPostHooks(executionContext); hookError != nil {
		return result, hookError
	}
	result.Stage = StagePostHooksRun

	headRevision, headError := engine.inspector.HeadRevision(repositoryPath)
	if headError != nil {
		engine.logger.Warn(headRevisionUnavailableMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.Error(headError))
	}
	result.HeadRevision = headRevision
	result.Stage = StageDone

	engine.logger.Info(endAggregationMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryPath),
		zap.String(logFieldBranchConstant, descriptor.Target.Branch),
		zap.String(logFieldRevisionConstant, headRevision),
	)
	return result, nil
}

// Push force-pushes the target branch to the target remote.
func (engine *Engine) Push(executionContext context.Context) error {
	target := engine.descriptor.Target
	if !target.HasRemote() {
		return MissingTargetRemoteError{Branch: target.Branch}
	}
	engine.logger.Info(pushMessageConstant, zap.String(logFieldBranchConstant, target.Branch), zap.String(logFieldRemoteConstant, target.Remote))
	if _, pushError := engine.executeGit(executionContext, engine.descriptor.WorkingDirectory, gitPushSubcommandConstant, gitForceFlagConstant, target.Remote, target.Branch); pushError != nil {
		return fmt.Errorf(pushFailureTemplateConstant, target.Branch, target.Remote, pushError)
	}
	return nil
}

// initializeRepository clones the target remote when it is declared and initializes an empty repository otherwise.
func (engine *Engine) initializeRepository(executionContext context.Context) (bool, error) {
	descriptor := engine.descriptor
	repositoryPath := descriptor.WorkingDirectory

	targetURL, targetDeclared := descriptor.RemoteURL(descriptor.Target.Remote)
	if !descriptor.Target.HasRemote() || !targetDeclared {
		engine.logger.Info(initMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath))
		_, initError := engine.executeGit(executionContext, "", gitInitSubcommandConstant, repositoryPath)
		return false, initError
	}

	cloneArguments := []string{gitCloneSubcommandConstant}
	if engine.gitVersion.AtLeast(partialCloneMinimumVersion.Major, partialCloneMinimumVersion.Minor, partialCloneMinimumVersion.Patch) {
		cloneArguments = append(cloneArguments, gitPartialCloneFilterFlagConstant)
	}

	targetBranch, lookupError := engine.refResolver.ResolveRemoteRef(executionContext, "", targetURL, descriptor.Target.Branch)
	if lookupError != nil {
		return false, fmt.Errorf(cloneBranchLookupFailureTemplateConstant, descriptor.Target.Branch, targetURL, lookupError)
	}
	if targetBranch.Kind == gitrepo.RefKindBranch || targetBranch.Kind == gitrepo.RefKindTag {
		cloneArguments = append(cloneArguments, gitBranchFlagConstant, descriptor.Target.Branch)
	}
	cloneArguments = append(cloneArguments, resolveFetchArguments(nil, descriptor.Defaults)...)
	cloneArguments = append(cloneArguments, targetURL, repositoryPath)

	engine.logger.Info(cloneMessageConstant, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldURLConstant, targetURL))
	if _, cloneError := engine.executeGit(executionContext, "", cloneArguments...); cloneError != nil {
		return false, cloneError
	}
	return true, nil
}

func (engine *Engine) synchronizeRemotes(executionContext context.Context) error {
	repositoryPath := engine.descriptor.WorkingDirectory
	for _, remote := range engine.descriptor.Remotes {
		change, remoteError := engine.repositoryManager.EnsureRemote(executionContext, repositoryPath, remote.Name, remote.URL)
		if remoteError != nil {
			return fmt.Errorf(remoteSyncFailureTemplateConstant, remote.Name, remoteError)
		}
		switch change {
		case gitrepo.RemoteAdded:
			engine.logger.Debug(remoteAddedMessageConstant, zap.String(logFieldRemoteConstant, remote.Name), zap.String(logFieldURLConstant, remote.URL))
		case gitrepo.RemoteReplaced:
			engine.logger.Info(remoteReplacedMessageConstant, zap.String(logFieldRemoteConstant, remote.Name), zap.String(logFieldURLConstant, remote.URL))
		}
	}
	return nil
}

func (engine *Engine) fetchMerges(executionContext context.Context) error {
	descriptor := engine.descriptor
	for _, merge := range descriptor.Merges {
		fetchArguments := []string{gitFetchSubcommandConstant}
		fetchArguments = append(fetchArguments, resolveFetchArguments(merge.FetchOptions, descriptor.Defaults)...)
		fetchArguments = append(fetchArguments, merge.Remote)
		if !descriptor.FetchAll.Includes(merge.Remote) {
			fetchArguments = append(fetchArguments, merge.Ref)
		}
		if _, fetchError := engine.executeGit(executionContext, descriptor.WorkingDirectory, fetchArguments...); fetchError != nil {
			return fmt.Errorf(fetchFailureTemplateConstant, merge.Ref, merge.Remote, fetchError)
		}
	}
	return nil
}

func (engine *Engine) resetToBaseline(executionContext context.Context, baseline Merge) error {
	repositoryPath := engine.descriptor.WorkingDirectory
	if !engine.descriptor.Force {
		status, statusError := engine.repositoryManager.WorktreeStatus(executionContext, repositoryPath)
		if statusError != nil {
			return fmt.Errorf(baselineFailureTemplateConstant, baseline.Remote, baseline.Ref, statusError)
		}
		if len(status) > 0 {
			return DirtyRepositoryError{RepositoryPath: repositoryPath, Status: status}
		}
	}

	reference, resolveError := engine.refResolver.ResolveRemoteRef(executionContext, repositoryPath, baseline.Remote, baseline.Ref)
	if resolveError != nil {
		return fmt.Errorf(baselineFailureTemplateConstant, baseline.Remote, baseline.Ref, resolveError)
	}
	if !reference.Resolved() && !gitrepo.IsHexRevision(baseline.Ref) {
		return UnresolvableRefError{Remote: baseline.Remote, Ref: baseline.Ref}
	}

	engine.logger.Info(baselineMessageConstant,
		zap.String(logFieldRemoteConstant, baseline.Remote),
		zap.String(logFieldRefConstant, baseline.Ref),
		zap.String(logFieldRevisionConstant, reference.Revision),
	)
	if resetError := engine.repositoryManager.ResetHardAndClean(executionContext, repositoryPath, reference.Revision, engine.quietCommands); resetError != nil {
		return fmt.Errorf(baselineFailureTemplateConstant, baseline.Remote, baseline.Ref, resetError)
	}
	return nil
}

func (engine *Engine) pull(executionContext context.Context, merge Merge) error {
	pullArguments := []string{gitPullSubcommandConstant, gitPullFastForwardFlagConstant, gitPullNoRebaseFlagConstant}
	if engine.gitVersion.AtLeast(pullNoEditMinimumVersion.Major, pullNoEditMinimumVersion.Minor, pullNoEditMinimumVersion.Patch) {
		pullArguments = append(pullArguments, gitPullNoEditFlagConstant)
	}
	if engine.quietCommands {
		pullArguments = append(pullArguments, gitQuietFlagConstant)
	}
	pullArguments = append(pullArguments, resolveFetchArguments(merge.FetchOptions, engine.descriptor.Defaults)...)
	pullArguments = append(pullArguments, merge.Remote, merge.Ref)

	engine.logger.Info(mergeMessageConstant, zap.String(logFieldRemoteConstant, merge.Remote), zap.String(logFieldRefConstant, merge.Ref))
	if _, pullError := engine.executeGit(executionContext, engine.descriptor.WorkingDirectory, pullArguments...); pullError != nil {
		return fmt.Errorf(mergeFailureTemplateConstant, merge.Ref, merge.Remote, pullError)
	}
	return nil
}

func (engine *Engine) runPostHooks(executionContext context.Context) error {
	hooks := engine.descriptor.PostHooks
	if len(hooks) == 0 {
		return nil
	}
	engine.logger.Info(postHooksMessageConstant, zap.Int(logFieldCountConstant, len(hooks)))
	for _, hook := range hooks {
		if _, hookError := engine.executor.ExecuteShell(executionContext, hook, execshell.CommandDetails{WorkingDirectory: engine.descriptor.WorkingDirectory}); hookError != nil {
			return fmt.Errorf(postHookFailureTemplateConstant, hook, hookError)
		}
	}
	return nil
}

func (engine *Engine) executeGit(executionContext context.Context, workingDirectory string, arguments ...string) (execshell.ExecutionResult, error) {
	return engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledValueConstant},
	})
}
