package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitagg/internal/repoconfig"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# repos.yaml"
	readmeSnippetTestNameConstant    = "readme_repository_configuration"
	readmeSnippetFileNameConstant    = "repos.yaml"
	expectedRepositoryCount          = 1
	expectedMergeCount               = 3
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing repos header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	expectedWorkingDirectoryConstant = "product_attribute"
	expectedTargetRemoteConstant     = "acsone"
	expectedTargetBranchConstant     = "aggregated_branch_name"
)

func TestReadmeRepositoryConfigurationParses(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	testCases := []struct {
		name          string
		configuration string
	}{
		{
			name:          readmeSnippetTestNameConstant,
			configuration: snippetContent,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			baseDirectory := subtest.TempDir()
			configurationPath := filepath.Join(baseDirectory, readmeSnippetFileNameConstant)
			require.NoError(subtest, os.WriteFile(configurationPath, []byte(testCase.configuration), 0o600))

			loader := repoconfig.NewLoader(repoconfig.Dependencies{})
			descriptors, loadError := loader.Load(repoconfig.LoadOptions{Path: configurationPath, BaseDirectory: baseDirectory})
			require.NoError(subtest, loadError)
			require.Len(subtest, descriptors, expectedRepositoryCount)

			descriptor := descriptors[0]
			require.Equal(subtest, filepath.Join(baseDirectory, expectedWorkingDirectoryConstant), descriptor.WorkingDirectory)
			require.Len(subtest, descriptor.Merges, expectedMergeCount)
			require.Equal(subtest, expectedTargetRemoteConstant, descriptor.Target.Remote)
			require.Equal(subtest, expectedTargetBranchConstant, descriptor.Target.Branch)
			require.NoError(subtest, descriptor.Validate())
		})
	}
}
