package pullrequests_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitagg/internal/pullrequests"
)

func TestResolveToken(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		expectedToken string
		expectedFound bool
	}{
		{name: "none", environment: map[string]string{}, expectedFound: false},
		{name: "github_token", environment: map[string]string{"GITHUB_TOKEN": "abc"}, expectedToken: "abc", expectedFound: true},
		{name: "gh_token_preferred", environment: map[string]string{"GITHUB_TOKEN": "abc", "GH_TOKEN": "def"}, expectedToken: "def", expectedFound: true},
		{name: "blank_skipped", environment: map[string]string{"GH_TOKEN": "  ", "GITHUB_API_TOKEN": " xyz "}, expectedToken: "xyz", expectedFound: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			token, found := pullrequests.ResolveToken(func(name string) (string, bool) {
				value, exists := testCase.environment[name]
				return value, exists
			})
			require.Equal(subTest, testCase.expectedFound, found)
			require.Equal(subTest, testCase.expectedToken, token)
		})
	}
}

func TestResolveTokenWithoutLookup(testInstance *testing.T) {
	_, found := pullrequests.ResolveToken(nil)
	require.False(testInstance, found)
}
