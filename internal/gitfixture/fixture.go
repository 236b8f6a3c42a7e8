// Package gitfixture builds throwaway git repositories for tests that drive the real git binary.
package gitfixture

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	gitExecutableNameConstant    = "git"
	gitMissingSkipReasonConstant = "git executable not available"
	fixedTimestampConstant       = "2024-01-02T03:04:05Z"
	fixtureAuthorNameConstant    = "Aggregator Fixture"
	fixtureAuthorEmailConstant   = "fixture@example.com"
	defaultBranchNameConstant    = "master"
	fileModeConstant             = 0o644
)

// RequireGit skips the test when git is not installed and pins the commit identity and dates
// so generated commits are deterministic.
func RequireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(gitExecutableNameConstant); lookupError != nil {
		testInstance.Skip(gitMissingSkipReasonConstant)
	}
	testInstance.Setenv("GIT_AUTHOR_NAME", fixtureAuthorNameConstant)
	testInstance.Setenv("GIT_AUTHOR_EMAIL", fixtureAuthorEmailConstant)
	testInstance.Setenv("GIT_COMMITTER_NAME", fixtureAuthorNameConstant)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", fixtureAuthorEmailConstant)
	testInstance.Setenv("GIT_AUTHOR_DATE", fixedTimestampConstant)
	testInstance.Setenv("GIT_COMMITTER_DATE", fixedTimestampConstant)
	testInstance.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	testInstance.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

// Run executes git in directory and returns trimmed combined output; any failure fails the test.
func Run(testInstance *testing.T, directory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(gitExecutableNameConstant, arguments...)
	command.Dir = directory
	outputBytes, commandError := command.CombinedOutput()
	require.NoError(testInstance, commandError, string(outputBytes))
	return string(bytes.TrimSpace(outputBytes))
}

// InitRepository creates a non-bare repository on the master branch inside a fresh temporary directory.
func InitRepository(testInstance *testing.T) string {
	testInstance.Helper()
	repositoryPath := testInstance.TempDir()
	Run(testInstance, repositoryPath, "init", "--quiet")
	Run(testInstance, repositoryPath, "symbolic-ref", "HEAD", "refs/heads/"+defaultBranchNameConstant)
	return repositoryPath
}

// Commit writes content to fileName and records a commit, returning the new commit id.
func Commit(testInstance *testing.T, repositoryPath string, fileName string, content string, message string) string {
	testInstance.Helper()
	WriteFile(testInstance, repositoryPath, fileName, content)
	Run(testInstance, repositoryPath, "add", fileName)
	Run(testInstance, repositoryPath, "commit", "--quiet", "-m", message)
	return Run(testInstance, repositoryPath, "rev-parse", "HEAD")
}

// WriteFile writes content to fileName below repositoryPath without staging it.
func WriteFile(testInstance *testing.T, repositoryPath string, fileName string, content string) {
	testInstance.Helper()
	filePath := filepath.Join(repositoryPath, fileName)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), fileModeConstant))
}
