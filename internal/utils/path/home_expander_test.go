package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/gitagg/internal/utils/path"
)

const (
	testHomeDirectoryConstant = "/home/aggregator"
	testBaseDirectoryConstant = "/etc/gitagg"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "tilde_only", input: "~", expected: testHomeDirectoryConstant},
		{name: "tilde_slash", input: "~/src/web", expected: filepath.Join(testHomeDirectoryConstant, "src/web")},
		{name: "other_user", input: "~other/src", expected: "~other/src"},
		{name: "absolute", input: "/srv/web", expected: "/srv/web"},
		{name: "relative", input: "src/web", expected: "src/web"},
		{name: "empty", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			expander := pathutils.NewHomeExpander(func() (string, error) { return testHomeDirectoryConstant, nil })
			require.Equal(testInstance, testCase.expected, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderConsultsProviderOnce(testInstance *testing.T) {
	invocations := 0
	expander := pathutils.NewHomeExpander(func() (string, error) {
		invocations++
		return "", errors.New("no home")
	})

	require.Equal(testInstance, "~/web", expander.Expand("~/web"))
	require.Equal(testInstance, "~", expander.Expand("~"))
	require.Equal(testInstance, 1, invocations)
}

func TestHomeExpanderResolveAgainst(testInstance *testing.T) {
	expander := pathutils.NewHomeExpander(func() (string, error) { return testHomeDirectoryConstant, nil })

	require.Equal(testInstance, filepath.Join(testBaseDirectoryConstant, "src/web"), expander.ResolveAgainst(testBaseDirectoryConstant, "./src/web"))
	require.Equal(testInstance, "/srv/web", expander.ResolveAgainst(testBaseDirectoryConstant, "/srv/web/"))
	require.Equal(testInstance, filepath.Join(testHomeDirectoryConstant, "web"), expander.ResolveAgainst(testBaseDirectoryConstant, "~/web"))
}
