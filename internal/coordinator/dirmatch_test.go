package coordinator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitagg/internal/coordinator"
)

func TestMatchDirectory(testInstance *testing.T) {
	const baseDirectory = "/srv/odoo"

	testCases := []struct {
		name             string
		workingDirectory string
		pattern          string
		expected         bool
	}{
		{name: "empty_pattern", workingDirectory: "/srv/odoo/src/web", pattern: "", expected: true},
		{name: "absolute_glob", workingDirectory: "/srv/odoo/src/web", pattern: "/srv/*/web", expected: true},
		{name: "star_crosses_separators", workingDirectory: "/srv/odoo/src/web", pattern: "*web", expected: true},
		{name: "relative_glob", workingDirectory: "/srv/odoo/src/web", pattern: "src/w?b", expected: true},
		{name: "exact_relative", workingDirectory: "/srv/odoo/src/web", pattern: "./src/web", expected: true},
		{name: "exact_absolute", workingDirectory: "/srv/odoo/src/web", pattern: "/srv/odoo/src/web/", expected: true},
		{name: "character_class", workingDirectory: "/srv/odoo/src/web", pattern: "src/[uvw]eb", expected: true},
		{name: "no_match", workingDirectory: "/srv/odoo/src/web", pattern: "src/server-tools", expected: false},
		{name: "prefix_only", workingDirectory: "/srv/odoo/src/web", pattern: "src", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, coordinator.MatchDirectory(testCase.workingDirectory, testCase.pattern, baseDirectory))
		})
	}
}
