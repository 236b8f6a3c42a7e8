package pullrequests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/gitrepo"
)

const (
	closedStateConstant                = "closed"
	mergedLabelConstant                = "merged"
	notMergedLabelConstant             = "not merged"
	labelSeparatorConstant             = ", "
	closedLineTemplateConstant         = "%s in state %s (%s; labels: %s)\n"
	pullRequestLineTemplateConstant    = "%s in state %s (%s)\n"
	notGitHubRemoteMessageConstant     = "Remote is not hosted on GitHub"
	notPullRequestRefMessageConstant   = "Ref is not a GitHub pull request"
	statusUnavailableMessageConstant   = "Could not get pull request status"
	collectFailureTemplateConstant     = "failed to inspect %s: %w"
	clientNotConfiguredMessageConstant = "pull request client not configured"
	outputNotConfiguredMessageConstant = "pull request output not configured"
	remoteURLFieldConstant             = "remote_url"
	refFieldConstant                   = "ref"
	pullRequestFieldConstant           = "pull_request"
	statusCodeFieldConstant            = "status_code"
	pullRequestNumberSubmatchConstant  = 2
)

var pullRequestRefPattern = regexp.MustCompile(`^(refs/)?pull/([0-9]+)/head$`)

var (
	// ErrClientNotConfigured indicates the inspector was constructed without a GitHub client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrOutputNotConfigured indicates the inspector was constructed without an output writer.
	ErrOutputNotConfigured = errors.New(outputNotConfiguredMessageConstant)
)

// PullRequestFetcher retrieves a single pull request.
type PullRequestFetcher interface {
	PullRequest(requestContext context.Context, owner string, repository string, number int) (PullRequest, error)
}

// Inspector reports the state of pull requests merged into aggregated repositories.
// Report lines from concurrent repositories are serialized on the output writer.
type Inspector struct {
	client      PullRequestFetcher
	output      io.Writer
	outputGuard sync.Mutex
}

// NewInspector constructs an Inspector writing report lines to output.
func NewInspector(client PullRequestFetcher, output io.Writer) (*Inspector, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if output == nil {
		return nil, ErrOutputNotConfigured
	}
	return &Inspector{client: client, output: output}, nil
}

// Collect groups the GitHub pull requests merged by descriptor by their state.
// Merges from other hosts or of ordinary branches are ignored; pull requests GitHub
// refuses to describe are logged and skipped.
func (inspector *Inspector) Collect(executionContext context.Context, logger *zap.Logger, descriptor aggregator.Descriptor) (map[string][]PullRequest, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pullRequestsByState := map[string][]PullRequest{}
	for _, merge := range descriptor.Merges {
		remoteURL, _ := descriptor.RemoteURL(merge.Remote)
		parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
		if parseError != nil || !parsedRemote.IsGitHub() {
			logger.Debug(notGitHubRemoteMessageConstant, zap.String(remoteURLFieldConstant, remoteURL))
			continue
		}
		refMatch := pullRequestRefPattern.FindStringSubmatch(merge.Ref)
		if refMatch == nil {
			logger.Debug(notPullRequestRefMessageConstant, zap.String(refFieldConstant, merge.Ref))
			continue
		}
		number, conversionError := strconv.Atoi(refMatch[pullRequestNumberSubmatchConstant])
		if conversionError != nil {
			logger.Debug(notPullRequestRefMessageConstant, zap.String(refFieldConstant, merge.Ref))
			continue
		}

		pullRequest, fetchError := inspector.client.PullRequest(executionContext, parsedRemote.Owner, parsedRemote.Repository, number)
		if fetchError != nil {
			var statusError StatusError
			if errors.As(fetchError, &statusError) {
				logger.Warn(statusUnavailableMessageConstant,
					zap.String(pullRequestFieldConstant, fmt.Sprintf(shortcutTemplateConstant, parsedRemote.Owner, parsedRemote.Repository, number)),
					zap.Int(statusCodeFieldConstant, statusError.StatusCode),
					zap.Error(fetchError))
				continue
			}
			return nil, fmt.Errorf(collectFailureTemplateConstant, descriptor.WorkingDirectory, fetchError)
		}
		pullRequestsByState[pullRequest.State] = append(pullRequestsByState[pullRequest.State], pullRequest)
	}
	return pullRequestsByState, nil
}

// ShowClosed writes one line per pull request that is no longer open.
func (inspector *Inspector) ShowClosed(executionContext context.Context, logger *zap.Logger, descriptor aggregator.Descriptor) error {
	pullRequestsByState, collectError := inspector.Collect(executionContext, logger, descriptor)
	if collectError != nil {
		return collectError
	}
	lines := make([]string, 0, len(pullRequestsByState[closedStateConstant]))
	for _, pullRequest := range pullRequestsByState[closedStateConstant] {
		lines = append(lines, fmt.Sprintf(closedLineTemplateConstant, pullRequest.URL, pullRequest.State, mergedLabel(pullRequest), strings.Join(pullRequest.Labels, labelSeparatorConstant)))
	}
	return inspector.write(lines)
}

// ShowAll writes one line per pull request, grouped by state in alphabetical order.
func (inspector *Inspector) ShowAll(executionContext context.Context, logger *zap.Logger, descriptor aggregator.Descriptor) error {
	pullRequestsByState, collectError := inspector.Collect(executionContext, logger, descriptor)
	if collectError != nil {
		return collectError
	}
	states := make([]string, 0, len(pullRequestsByState))
	for state := range pullRequestsByState {
		states = append(states, state)
	}
	sort.Strings(states)

	lines := []string{}
	for _, state := range states {
		for _, pullRequest := range pullRequestsByState[state] {
			lines = append(lines, fmt.Sprintf(pullRequestLineTemplateConstant, pullRequest.URL, pullRequest.State, mergedLabel(pullRequest)))
		}
	}
	return inspector.write(lines)
}

func (inspector *Inspector) write(lines []string) error {
	inspector.outputGuard.Lock()
	defer inspector.outputGuard.Unlock()
	for _, line := range lines {
		if _, writeError := io.WriteString(inspector.output, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func mergedLabel(pullRequest PullRequest) string {
	if pullRequest.Merged {
		return mergedLabelConstant
	}
	return notMergedLabelConstant
}
