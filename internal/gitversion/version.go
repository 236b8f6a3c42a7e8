package gitversion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	versionKeywordConstant                 = "version"
	versionComponentSeparatorConstant      = "."
	versionStringTemplateConstant          = "%d.%d.%d"
	maximumVersionComponentsConstant       = 3
	parseErrorTemplateConstant             = "unable to parse git version from %q"
	executorMissingMessageConstant         = "git executor not configured"
	versionProbeFailureTemplateConstant    = "failed to probe git version: %w"
	gitVersionFlagConstant                 = "--version"
	gitTerminalPromptEnvironmentConstant   = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant = "0"
)

// ErrGitExecutorNotConfigured indicates the prober was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// Version is the numeric triple reported by git --version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String renders the version as major.minor.patch.
func (version Version) String() string {
	return fmt.Sprintf(versionStringTemplateConstant, version.Major, version.Minor, version.Patch)
}

// AtLeast reports whether the version is greater than or equal to major.minor.patch.
func (version Version) AtLeast(major int, minor int, patch int) bool {
	if version.Major != major {
		return version.Major > major
	}
	if version.Minor != minor {
		return version.Minor > minor
	}
	return version.Patch >= patch
}

// ParseError reports git --version output that carries no recognizable version.
type ParseError struct {
	Input string
}

// Error describes the unparseable input.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Input)
}

// Parse extracts the version from git --version output.
// Only the first line is considered; vendor suffixes after the numeric components are ignored.
func Parse(output string) (Version, error) {
	firstLine := strings.TrimSpace(output)
	if newlineIndex := strings.IndexAny(firstLine, "\r\n"); newlineIndex >= 0 {
		firstLine = firstLine[:newlineIndex]
	}

	tokens := strings.Fields(firstLine)
	versionToken := ""
	for tokenIndex := 0; tokenIndex+1 < len(tokens); tokenIndex++ {
		if tokens[tokenIndex] == versionKeywordConstant {
			versionToken = tokens[tokenIndex+1]
			break
		}
	}
	if len(versionToken) == 0 {
		return Version{}, ParseError{Input: output}
	}

	components := make([]int, 0, maximumVersionComponentsConstant)
	for _, component := range strings.Split(versionToken, versionComponentSeparatorConstant) {
		if len(components) == maximumVersionComponentsConstant {
			break
		}
		numericValue, conversionError := strconv.Atoi(component)
		if conversionError != nil || numericValue < 0 {
			break
		}
		components = append(components, numericValue)
	}
	if len(components) == 0 {
		return Version{}, ParseError{Input: output}
	}
	for len(components) < maximumVersionComponentsConstant {
		components = append(components, 0)
	}

	return Version{Major: components[0], Minor: components[1], Patch: components[2]}, nil
}

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Prober resolves the installed git version once per process.
type Prober struct {
	executor            GitExecutor
	initializationGuard sync.Once
	version             Version
	probeError          error
}

// NewProber constructs a Prober using the provided executor.
func NewProber(executor GitExecutor) (*Prober, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Prober{executor: executor}, nil
}

// Version returns the memoized version; the first call runs git --version.
// Concurrent callers observe the same result, including a failure.
func (prober *Prober) Version(executionContext context.Context) (Version, error) {
	prober.initializationGuard.Do(func() {
		executionResult, executionError := prober.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:            []string{gitVersionFlagConstant},
			EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledValueConstant},
		})
		if executionError != nil {
			prober.probeError = fmt.Errorf(versionProbeFailureTemplateConstant, executionError)
			return
		}
		prober.version, prober.probeError = Parse(executionResult.StandardOutput)
	})
	return prober.version, prober.probeError
}
