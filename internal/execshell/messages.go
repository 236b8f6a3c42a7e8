package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitVersionFlagConstant                 = "--version"
	gitCloneSubcommandNameConstant         = "clone"
	gitInitSubcommandNameConstant          = "init"
	gitCheckoutSubcommandNameConstant      = "checkout"
	gitRemoteSubcommandNameConstant        = "remote"
	gitRemoteVerboseFlagConstant           = "-v"
	gitRemoteAddSubcommandNameConstant     = "add"
	gitRemoteRemoveSubcommandConstant      = "rm"
	gitFetchSubcommandNameConstant         = "fetch"
	gitStatusSubcommandNameConstant        = "status"
	gitResetSubcommandNameConstant         = "reset"
	gitCleanSubcommandNameConstant         = "clean"
	gitPullSubcommandNameConstant          = "pull"
	gitPushSubcommandNameConstant          = "push"
	gitLSRemoteSubcommandNameConstant      = "ls-remote"
	gitApplyMailboxSubcommandConstant      = "am"
	gitFetchAllRemotesLabelConstant        = "all remotes"
	gitCloneBranchFlagConstant             = "-b"
	gitDepthFlagConstant                   = "--depth"
	gitShallowSinceFlagConstant            = "--shallow-since"
	gitShallowExcludeFlagConstant          = "--shallow-exclude"
	curlOutputFlagConstant                 = "-o"
	failureSuffixTemplateConstant          = " (exit code %d%s)"
	executionFailureSuffixTemplateConstant = ": %s"
)

// gitValueFlags lists flags whose value is the following argument.
var gitValueFlags = map[string]struct{}{
	gitCloneBranchFlagConstant:    {},
	gitDepthFlagConstant:          {},
	gitShallowSinceFlagConstant:   {},
	gitShallowExcludeFlagConstant: {},
	curlOutputFlagConstant:        {},
}

type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitVersionTemplates = messageTemplates{
		start:            "Checking git version",
		success:          "Checked git version",
		failure:          "Failed to check git version",
		executionFailure: "Unable to check git version",
	}
	gitCloneTemplates = messageTemplates{
		start:            "Cloning %s into %s",
		success:          "Cloned %s into %s",
		failure:          "Failed to clone %s into %s",
		executionFailure: "Unable to clone %s into %s",
	}
	gitInitTemplates = messageTemplates{
		start:            "Initializing repository in %s",
		success:          "Initialized repository in %s",
		failure:          "Failed to initialize repository in %s",
		executionFailure: "Unable to initialize repository in %s",
	}
	gitCheckoutTemplates = messageTemplates{
		start:            "Switching %s to branch %s",
		success:          "%s now on branch %s",
		failure:          "Failed to switch %s to branch %s",
		executionFailure: "Unable to switch %s to branch %s",
	}
	gitRemoteListTemplates = messageTemplates{
		start:            "Listing remotes in %s",
		success:          "Listed remotes in %s",
		failure:          "Failed to list remotes in %s",
		executionFailure: "Unable to list remotes in %s",
	}
	gitRemoteAddTemplates = messageTemplates{
		start:            "Adding remote %s (%s) in %s",
		success:          "Added remote %s (%s) in %s",
		failure:          "Failed to add remote %s (%s) in %s",
		executionFailure: "Unable to add remote %s (%s) in %s",
	}
	gitRemoteRemoveTemplates = messageTemplates{
		start:            "Removing remote %s in %s",
		success:          "Removed remote %s in %s",
		failure:          "Failed to remove remote %s in %s",
		executionFailure: "Unable to remove remote %s in %s",
	}
	gitFetchTemplates = messageTemplates{
		start:            "Fetching %s from %s in %s",
		success:          "Fetched %s from %s in %s",
		failure:          "Failed to fetch %s from %s in %s",
		executionFailure: "Unable to fetch %s from %s in %s",
	}
	gitFetchWithoutRefsTemplates = messageTemplates{
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s",
		executionFailure: "Unable to fetch from %s in %s",
	}
	gitStatusTemplates = messageTemplates{
		start:            "Reviewing working tree status in %s",
		success:          "Collected working tree status for %s",
		failure:          "Failed to review working tree status in %s",
		executionFailure: "Unable to review working tree status in %s",
	}
	gitResetTemplates = messageTemplates{
		start:            "Resetting %s to %s",
		success:          "Reset %s to %s",
		failure:          "Failed to reset %s to %s",
		executionFailure: "Unable to reset %s to %s",
	}
	gitCleanTemplates = messageTemplates{
		start:            "Removing untracked files in %s",
		success:          "Removed untracked files in %s",
		failure:          "Failed to remove untracked files in %s",
		executionFailure: "Unable to remove untracked files in %s",
	}
	gitPullTemplates = messageTemplates{
		start:            "Merging %s from %s into %s",
		success:          "Merged %s from %s into %s",
		failure:          "Failed to merge %s from %s into %s",
		executionFailure: "Unable to merge %s from %s into %s",
	}
	gitPushTemplates = messageTemplates{
		start:            "Pushing %s to %s from %s",
		success:          "Pushed %s to %s from %s",
		failure:          "Failed to push %s to %s from %s",
		executionFailure: "Unable to push %s to %s from %s",
	}
	gitLSRemoteTemplates = messageTemplates{
		start:            "Resolving %s on %s from %s",
		success:          "Resolved %s on %s from %s",
		failure:          "Failed to resolve %s on %s from %s",
		executionFailure: "Unable to resolve %s on %s from %s",
	}
	gitApplyMailboxTemplates = messageTemplates{
		start:            "Applying patch in %s",
		success:          "Applied patch in %s",
		failure:          "Failed to apply patch in %s",
		executionFailure: "Unable to apply patch in %s",
	}
	shellTemplates = messageTemplates{
		start:            "Running %q in %s",
		success:          "Finished %q in %s",
		failure:          "Command %q failed in %s",
		executionFailure: "Unable to run %q in %s",
	}
	curlTemplates = messageTemplates{
		start:            "Downloading %s",
		success:          "Downloaded %s",
		failure:          "Failed to download %s",
		executionFailure: "Unable to download %s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	var templates messageTemplates
	var subjects []any
	var described bool

	switch command.Name {
	case CommandGit:
		templates, subjects, described = formatter.describeGitCommand(command)
	case CommandShell:
		templates, subjects, described = formatter.describeShellCommand(command)
	case CommandCurl:
		templates, subjects, described = formatter.describeCurlCommand(command)
	}

	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.render(templates, subjects, result, failure, stage)
}

func (formatter CommandMessageFormatter) render(templates messageTemplates, subjects []any, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure+failureSuffixTemplateConstant, failureArguments...)
	default:
		failureArguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure+executionFailureSuffixTemplateConstant, failureArguments...)
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand) (messageTemplates, []any, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return messageTemplates{}, nil, false
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	subcommand := strings.TrimSpace(arguments[0])
	positional := positionalArguments(arguments[1:])

	switch subcommand {
	case gitVersionFlagConstant:
		return gitVersionTemplates, nil, true
	case gitCloneSubcommandNameConstant:
		return gitCloneTemplates, []any{formatter.ensureValue(argumentAtIndex(positional, 0)), formatter.ensureValue(argumentAtIndex(positional, 1))}, true
	case gitInitSubcommandNameConstant:
		return gitInitTemplates, []any{formatter.ensureValue(argumentAtIndex(positional, 0))}, true
	case gitCheckoutSubcommandNameConstant:
		return gitCheckoutTemplates, []any{workingDirectory, formatter.ensureValue(argumentAtIndex(positional, 0))}, true
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteCommand(arguments, workingDirectory)
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.ensureValue(argumentAtIndex(positional, 0))
		if len(positional) == 0 {
			remoteName = gitFetchAllRemotesLabelConstant
		}
		if len(positional) < 2 {
			return gitFetchWithoutRefsTemplates, []any{remoteName, workingDirectory}, true
		}
		return gitFetchTemplates, []any{strings.Join(positional[1:], ", "), remoteName, workingDirectory}, true
	case gitStatusSubcommandNameConstant:
		return gitStatusTemplates, []any{workingDirectory}, true
	case gitResetSubcommandNameConstant:
		return gitResetTemplates, []any{workingDirectory, formatter.ensureValue(argumentAtIndex(positional, len(positional)-1))}, true
	case gitCleanSubcommandNameConstant:
		return gitCleanTemplates, []any{workingDirectory}, true
	case gitPullSubcommandNameConstant:
		return gitPullTemplates, []any{formatter.ensureValue(argumentAtIndex(positional, 1)), formatter.ensureValue(argumentAtIndex(positional, 0)), workingDirectory}, true
	case gitPushSubcommandNameConstant:
		return gitPushTemplates, []any{formatter.ensureValue(argumentAtIndex(positional, 1)), formatter.ensureValue(argumentAtIndex(positional, 0)), workingDirectory}, true
	case gitLSRemoteSubcommandNameConstant:
		return gitLSRemoteTemplates, []any{formatter.ensureValue(argumentAtIndex(positional, 1)), formatter.ensureValue(argumentAtIndex(positional, 0)), workingDirectory}, true
	case gitApplyMailboxSubcommandConstant:
		return gitApplyMailboxTemplates, []any{workingDirectory}, true
	default:
		return messageTemplates{}, nil, false
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteCommand(arguments []string, workingDirectory string) (messageTemplates, []any, bool) {
	if len(arguments) < 2 {
		return messageTemplates{}, nil, false
	}
	switch strings.TrimSpace(arguments[1]) {
	case gitRemoteVerboseFlagConstant:
		return gitRemoteListTemplates, []any{workingDirectory}, true
	case gitRemoteAddSubcommandNameConstant:
		return gitRemoteAddTemplates, []any{formatter.ensureValue(argumentAtIndex(arguments, 2)), formatter.ensureValue(argumentAtIndex(arguments, 3)), workingDirectory}, true
	case gitRemoteRemoveSubcommandConstant:
		return gitRemoteRemoveTemplates, []any{formatter.ensureValue(argumentAtIndex(arguments, 2)), workingDirectory}, true
	default:
		return messageTemplates{}, nil, false
	}
}

func (formatter CommandMessageFormatter) describeShellCommand(command ShellCommand) (messageTemplates, []any, bool) {
	arguments := command.Details.Arguments
	if len(arguments) < 2 {
		return messageTemplates{}, nil, false
	}
	return shellTemplates, []any{arguments[len(arguments)-1], formatter.describeWorkingDirectory(command)}, true
}

func (formatter CommandMessageFormatter) describeCurlCommand(command ShellCommand) (messageTemplates, []any, bool) {
	positional := positionalArguments(command.Details.Arguments)
	if len(positional) == 0 {
		return messageTemplates{}, nil, false
	}
	return curlTemplates, []any{positional[len(positional)-1]}, true
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	workingDirectorySuffix := emptyStringConstant
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, command.String(), workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return arguments[index]
}

// positionalArguments drops flags and the values consumed by value-taking flags.
func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		argument := arguments[argumentIndex]
		if strings.HasPrefix(argument, flagPrefixConstant) {
			if _, takesValue := gitValueFlags[argument]; takesValue {
				argumentIndex++
			}
			continue
		}
		positional = append(positional, argument)
	}
	return positional
}
