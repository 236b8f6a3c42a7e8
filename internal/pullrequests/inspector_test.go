package pullrequests_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/pullrequests"
)

type stubPullRequestFetcher struct {
	pullRequests map[string]pullrequests.PullRequest
	failures     map[string]error
	requested    []string
}

func (fetcher *stubPullRequestFetcher) PullRequest(_ context.Context, owner string, repository string, number int) (pullrequests.PullRequest, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repository, number)
	fetcher.requested = append(fetcher.requested, key)
	if failure, exists := fetcher.failures[key]; exists {
		return pullrequests.PullRequest{}, failure
	}
	return fetcher.pullRequests[key], nil
}

func inspectedDescriptor() aggregator.Descriptor {
	return aggregator.Descriptor{
		WorkingDirectory: "/tmp/server-tools",
		Remotes: []aggregator.Remote{
			{Name: "oca", URL: "https://github.com/OCA/server-tools.git"},
			{Name: "acsone", URL: "git@github.com:acsone/server-tools.git"},
			{Name: "gitlab", URL: "https://gitlab.com/OCA/server-tools.git"},
		},
		Merges: []aggregator.Merge{
			{Remote: "oca", Ref: "16.0"},
			{Remote: "oca", Ref: "refs/pull/10/head"},
			{Remote: "acsone", Ref: "pull/20/head"},
			{Remote: "oca", Ref: "pull/30/head"},
			{Remote: "gitlab", Ref: "pull/40/head"},
			{Remote: "oca", Ref: "pull/50/head"},
		},
		Target: aggregator.Target{Branch: "_git_aggregated"},
	}
}

func newInspectedFetcher() *stubPullRequestFetcher {
	return &stubPullRequestFetcher{
		pullRequests: map[string]pullrequests.PullRequest{
			"OCA/server-tools#10":    {State: "closed", URL: "https://github.com/OCA/server-tools/pull/10", Merged: true, Labels: []string{"bug", "approved"}},
			"acsone/server-tools#20": {State: "open", URL: "https://github.com/acsone/server-tools/pull/20"},
			"OCA/server-tools#50":    {State: "closed", URL: "https://github.com/OCA/server-tools/pull/50"},
		},
		failures: map[string]error{
			"OCA/server-tools#30": pullrequests.StatusError{Path: "/repos/OCA/server-tools/pulls/30", StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		},
	}
}

func TestInspectorCollectGroupsByState(testInstance *testing.T) {
	fetcher := newInspectedFetcher()
	inspector, constructionError := pullrequests.NewInspector(fetcher, &bytes.Buffer{})
	require.NoError(testInstance, constructionError)

	core, recorded := observer.New(zapcore.DebugLevel)
	pullRequestsByState, collectError := inspector.Collect(context.Background(), zap.New(core), inspectedDescriptor())
	require.NoError(testInstance, collectError)

	require.Equal(testInstance, []string{"OCA/server-tools#10", "acsone/server-tools#20", "OCA/server-tools#30", "OCA/server-tools#50"}, fetcher.requested)
	require.Len(testInstance, pullRequestsByState["closed"], 2)
	require.Len(testInstance, pullRequestsByState["open"], 1)

	warnings := recorded.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(testInstance, warnings, 1)
	require.Equal(testInstance, "Could not get pull request status", warnings[0].Message)
	require.Equal(testInstance, "OCA/server-tools#30", warnings[0].ContextMap()["pull_request"])
	require.Equal(testInstance, 1, recorded.FilterMessage("Remote is not hosted on GitHub").Len())
	require.Equal(testInstance, 1, recorded.FilterMessage("Ref is not a GitHub pull request").Len())
}

func TestInspectorShowClosed(testInstance *testing.T) {
	output := &bytes.Buffer{}
	inspector, constructionError := pullrequests.NewInspector(newInspectedFetcher(), output)
	require.NoError(testInstance, constructionError)

	require.NoError(testInstance, inspector.ShowClosed(context.Background(), zap.NewNop(), inspectedDescriptor()))
	require.Equal(testInstance,
		"https://github.com/OCA/server-tools/pull/10 in state closed (merged; labels: bug, approved)\n"+
			"https://github.com/OCA/server-tools/pull/50 in state closed (not merged; labels: )\n",
		output.String())
}

func TestInspectorShowAll(testInstance *testing.T) {
	output := &bytes.Buffer{}
	inspector, constructionError := pullrequests.NewInspector(newInspectedFetcher(), output)
	require.NoError(testInstance, constructionError)

	require.NoError(testInstance, inspector.ShowAll(context.Background(), nil, inspectedDescriptor()))
	require.Equal(testInstance,
		"https://github.com/OCA/server-tools/pull/10 in state closed (merged)\n"+
			"https://github.com/OCA/server-tools/pull/50 in state closed (not merged)\n"+
			"https://github.com/acsone/server-tools/pull/20 in state open (not merged)\n",
		output.String())
}

func TestInspectorPropagatesTransportFailures(testInstance *testing.T) {
	transportFailure := errors.New("connection refused")
	fetcher := &stubPullRequestFetcher{failures: map[string]error{
		"OCA/server-tools#10": pullrequests.RequestError{Path: "/repos/OCA/server-tools/pulls/10", Cause: transportFailure},
	}}
	inspector, constructionError := pullrequests.NewInspector(fetcher, &bytes.Buffer{})
	require.NoError(testInstance, constructionError)

	_, collectError := inspector.Collect(context.Background(), zap.NewNop(), inspectedDescriptor())
	require.ErrorIs(testInstance, collectError, transportFailure)
	require.Contains(testInstance, collectError.Error(), "/tmp/server-tools")
}

func TestNewInspectorValidatesDependencies(testInstance *testing.T) {
	_, missingClientError := pullrequests.NewInspector(nil, &bytes.Buffer{})
	require.ErrorIs(testInstance, missingClientError, pullrequests.ErrClientNotConfigured)

	_, missingOutputError := pullrequests.NewInspector(&stubPullRequestFetcher{}, nil)
	require.ErrorIs(testInstance, missingOutputError, pullrequests.ErrOutputNotConfigured)
}
