package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	gitLSRemoteSubcommandConstant          = "ls-remote"
	branchReferencePrefixConstant          = "refs/heads/"
	tagReferencePrefixConstant             = "refs/tags/"
	headReferenceConstant                  = "HEAD"
	listingParseErrorTemplateConstant      = "unable to parse %s output line %q"
	gitLSRemoteFailureTemplateConstant     = "failed to query %s on %s: %w"
	executorMissingMessageConstant         = "git executor not configured"
	hexadecimalDigitsConstant              = "0123456789abcdefABCDEF"
	refKindUnresolvedLabelConstant         = "unresolved"
	refKindBranchLabelConstant             = "branch"
	refKindTagLabelConstant                = "tag"
	refKindHeadLabelConstant               = "HEAD"
	gitTerminalPromptEnvironmentConstant   = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant = "0"
)

// ErrGitExecutorNotConfigured indicates a component was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RefKind classifies a remote reference.
type RefKind int

// Reference kinds reported by ls-remote classification.
const (
	RefKindUnresolved RefKind = iota
	RefKindBranch
	RefKindTag
	RefKindHead
)

// String returns a lowercase label for the kind.
func (kind RefKind) String() string {
	switch kind {
	case RefKindBranch:
		return refKindBranchLabelConstant
	case RefKindTag:
		return refKindTagLabelConstant
	case RefKindHead:
		return refKindHeadLabelConstant
	default:
		return refKindUnresolvedLabelConstant
	}
}

// RemoteRef is the classification of a ref on a remote.
// Revision holds the commit id when resolved and the original ref otherwise.
type RemoteRef struct {
	Kind     RefKind
	Revision string
}

// Resolved reports whether ls-remote matched the ref.
func (reference RemoteRef) Resolved() bool {
	return reference.Kind != RefKindUnresolved
}

// RemoteListingParseError reports a git listing line that does not follow the expected layout.
type RemoteListingParseError struct {
	Command string
	Line    string
}

// Error describes the malformed line.
func (parseError RemoteListingParseError) Error() string {
	return fmt.Sprintf(listingParseErrorTemplateConstant, parseError.Command, parseError.Line)
}

// RefResolver classifies refs on remotes through git ls-remote.
type RefResolver struct {
	executor GitExecutor
}

// NewRefResolver constructs a RefResolver.
func NewRefResolver(executor GitExecutor) (*RefResolver, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RefResolver{executor: executor}, nil
}

// ResolveRemoteRef classifies ref on remote, which may be a configured remote name or a URL.
// An empty workingDirectory runs ls-remote from the process directory, as needed before a clone exists.
func (resolver *RefResolver) ResolveRemoteRef(executionContext context.Context, workingDirectory string, remote string, ref string) (RemoteRef, error) {
	executionResult, executionError := resolver.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitLSRemoteSubcommandConstant, remote, ref},
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: nonInteractiveEnvironment(),
	})
	if executionError != nil {
		return RemoteRef{}, fmt.Errorf(gitLSRemoteFailureTemplateConstant, ref, remote, executionError)
	}
	return ClassifyRemoteListing(executionResult.StandardOutput, ref)
}

// ClassifyRemoteListing interprets ls-remote output for ref; the first matching line wins.
func ClassifyRemoteListing(listing string, ref string) (RemoteRef, error) {
	for _, line := range strings.Split(listing, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		fields := strings.Fields(trimmedLine)
		if len(fields) < 2 {
			return RemoteRef{}, RemoteListingParseError{Command: gitLSRemoteSubcommandConstant, Line: line}
		}
		revision, fullReference := fields[0], fields[1]
		switch {
		case fullReference == branchReferencePrefixConstant+ref:
			return RemoteRef{Kind: RefKindBranch, Revision: revision}, nil
		case fullReference == tagReferencePrefixConstant+ref:
			return RemoteRef{Kind: RefKindTag, Revision: revision}, nil
		case ref == headReferenceConstant && fullReference == headReferenceConstant:
			return RemoteRef{Kind: RefKindHead, Revision: revision}, nil
		}
	}
	return RemoteRef{Kind: RefKindUnresolved, Revision: ref}, nil
}

// IsHexRevision reports whether value looks like a (possibly abbreviated) commit id.
func IsHexRevision(value string) bool {
	if len(value) == 0 {
		return false
	}
	for _, character := range value {
		if !strings.ContainsRune(hexadecimalDigitsConstant, character) {
			return false
		}
	}
	return true
}

func nonInteractiveEnvironment() map[string]string {
	return map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledValueConstant}
}
