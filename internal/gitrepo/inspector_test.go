package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitagg/internal/gitfixture"
	"github.com/temirov/gitagg/internal/gitrepo"
)

func TestInspectorReadsReferences(testInstance *testing.T) {
	gitfixture.RequireGit(testInstance)

	upstreamPath := gitfixture.InitRepository(testInstance)
	gitfixture.Commit(testInstance, upstreamPath, "README.md", "base\n", "base")
	gitfixture.Run(testInstance, upstreamPath, "branch", "feature")
	gitfixture.Run(testInstance, upstreamPath, "branch", "8.0")

	clonePath := testInstance.TempDir()
	gitfixture.Run(testInstance, clonePath, "clone", "--quiet", upstreamPath, ".")
	headRevision := gitfixture.Run(testInstance, clonePath, "rev-parse", "HEAD")

	inspector := gitrepo.NewInspector()

	observedHead, headError := inspector.HeadRevision(clonePath)
	require.NoError(testInstance, headError)
	require.Equal(testInstance, headRevision, observedHead)

	branch, branchError := inspector.CurrentBranch(clonePath)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, "master", branch)

	trackingBranches, trackingError := inspector.RemoteTrackingBranches(clonePath, "origin")
	require.NoError(testInstance, trackingError)
	require.Equal(testInstance, []string{"8.0", "feature", "master"}, trackingBranches)

	gitfixture.Run(testInstance, clonePath, "checkout", "--quiet", "--detach")
	detachedBranch, detachedError := inspector.CurrentBranch(clonePath)
	require.NoError(testInstance, detachedError)
	require.Empty(testInstance, detachedBranch)
}

func TestInspectorReportsMissingRepository(testInstance *testing.T) {
	_, headError := gitrepo.NewInspector().HeadRevision(testInstance.TempDir())
	require.Error(testInstance, headError)
}
