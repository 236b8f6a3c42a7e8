package coordinator

import (
	"path/filepath"

	"github.com/gobwas/glob"
)

// MatchDirectory reports whether workingDirectory is selected by pattern.
// An empty pattern selects everything. Otherwise the shell-style pattern, where * also crosses
// path separators, is tried against the absolute directory and against its path relative to
// baseDirectory, and finally the relative forms are compared literally.
func MatchDirectory(workingDirectory string, pattern string, baseDirectory string) bool {
	if len(pattern) == 0 {
		return true
	}

	absoluteDirectory, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		absoluteDirectory = workingDirectory
	}
	relativeDirectory, relativeError := filepath.Rel(baseDirectory, absoluteDirectory)
	if relativeError != nil {
		relativeDirectory = absoluteDirectory
	}

	compiledPattern, compileError := glob.Compile(pattern)
	if compileError == nil {
		if compiledPattern.Match(absoluteDirectory) || compiledPattern.Match(relativeDirectory) {
			return true
		}
	}

	relativePattern := pattern
	if filepath.IsAbs(pattern) {
		if rebased, rebaseError := filepath.Rel(baseDirectory, pattern); rebaseError == nil {
			relativePattern = rebased
		}
	}
	return filepath.Clean(relativePattern) == relativeDirectory
}
