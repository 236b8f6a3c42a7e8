package repoconfig

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/temirov/gitagg/internal/aggregator"
	"github.com/temirov/gitagg/internal/filesystem"
	pathutils "github.com/temirov/gitagg/internal/utils/path"
)

const (
	expansionBracePrefixConstant = "${"
	expansionBraceSuffixConstant = "}"
	urlSchemeSeparatorConstant   = "://"
)

// EnvironmentLookup resolves a variable from the process environment.
type EnvironmentLookup func(name string) (string, bool)

// LoadOptions controls how a repository configuration file is read.
type LoadOptions struct {
	Path string
	// ExpandEnvironment substitutes $VAR and ${VAR} before parsing.
	ExpandEnvironment bool
	// EnvironmentFile supplies fallback variables; the process environment wins.
	EnvironmentFile string
	Force           bool
	// BaseDirectory anchors relative working directories and patch paths.
	// It defaults to the process working directory.
	BaseDirectory string
}

// Dependencies enumerates the collaborators of a Loader. Every field is optional.
type Dependencies struct {
	FileSystem        filesystem.FileSystem
	HomeExpander      *pathutils.HomeExpander
	LookupEnvironment EnvironmentLookup
}

// Loader turns repository configuration files into aggregation descriptors.
type Loader struct {
	fileSystem        filesystem.FileSystem
	homeExpander      *pathutils.HomeExpander
	lookupEnvironment EnvironmentLookup
}

// NewLoader constructs a Loader.
func NewLoader(dependencies Dependencies) *Loader {
	loader := &Loader{
		fileSystem:        dependencies.FileSystem,
		homeExpander:      dependencies.HomeExpander,
		lookupEnvironment: dependencies.LookupEnvironment,
	}
	if loader.fileSystem == nil {
		loader.fileSystem = filesystem.OSFileSystem{}
	}
	if loader.homeExpander == nil {
		loader.homeExpander = pathutils.NewHomeExpander(nil)
	}
	if loader.lookupEnvironment == nil {
		loader.lookupEnvironment = os.LookupEnv
	}
	return loader
}

// Load reads and parses the configuration file named by options.Path.
func (loader *Loader) Load(options LoadOptions) ([]aggregator.Descriptor, error) {
	configurationPath := loader.homeExpander.Expand(options.Path)
	if !filesystem.Exists(loader.fileSystem, configurationPath) {
		return nil, ConfigurationError{Message: fmt.Sprintf(missingConfigurationFileTemplateConstant, options.Path)}
	}
	content, readError := loader.fileSystem.ReadFile(configurationPath)
	if readError != nil {
		return nil, ConfigurationError{Message: fmt.Sprintf(unreadableConfigurationTemplateConstant, options.Path), Cause: readError}
	}
	return loader.Parse(content, options)
}

// Parse interprets configuration content. options.Path is not consulted.
func (loader *Loader) Parse(content []byte, options LoadOptions) ([]aggregator.Descriptor, error) {
	baseDirectory, baseError := loader.resolveBaseDirectory(options.BaseDirectory)
	if baseError != nil {
		return nil, baseError
	}

	if options.ExpandEnvironment {
		lookup, lookupError := loader.environmentLookup(options.EnvironmentFile)
		if lookupError != nil {
			return nil, lookupError
		}
		content = []byte(expandVariables(string(content), lookup))
	}

	parser := documentParser{
		baseDirectory: baseDirectory,
		homeExpander:  loader.homeExpander,
		force:         options.Force,
	}
	return parser.parse(content)
}

func (loader *Loader) resolveBaseDirectory(baseDirectory string) (string, error) {
	if len(baseDirectory) == 0 {
		baseDirectory = "."
	}
	absoluteDirectory, absoluteError := loader.fileSystem.Abs(loader.homeExpander.Expand(baseDirectory))
	if absoluteError != nil {
		return "", ConfigurationError{Message: fmt.Sprintf(unreadableConfigurationTemplateConstant, baseDirectory), Cause: absoluteError}
	}
	return absoluteDirectory, nil
}

// environmentLookup layers the optional dotenv file beneath the process environment.
func (loader *Loader) environmentLookup(environmentFile string) (EnvironmentLookup, error) {
	if len(environmentFile) == 0 {
		return loader.lookupEnvironment, nil
	}
	fileContent, readError := loader.fileSystem.ReadFile(loader.homeExpander.Expand(environmentFile))
	if readError != nil {
		return nil, ConfigurationError{Message: fmt.Sprintf(unreadableEnvironmentFileTemplateConstant, environmentFile), Cause: readError}
	}
	fileVariables, parseError := gotenv.StrictParse(bytes.NewReader(fileContent))
	if parseError != nil {
		return nil, ConfigurationError{Message: fmt.Sprintf(unreadableEnvironmentFileTemplateConstant, environmentFile), Cause: parseError}
	}
	return func(name string) (string, bool) {
		if value, found := loader.lookupEnvironment(name); found {
			return value, true
		}
		value, found := fileVariables[name]
		return value, found
	}, nil
}

// expandVariables substitutes known variables and leaves unknown references untouched.
func expandVariables(content string, lookup EnvironmentLookup) string {
	return os.Expand(content, func(name string) string {
		if value, found := lookup(name); found {
			return value
		}
		return expansionBracePrefixConstant + name + expansionBraceSuffixConstant
	})
}

// resolveLocalPath anchors a relative path to baseDirectory; URLs are returned unchanged.
func resolveLocalPath(homeExpander *pathutils.HomeExpander, baseDirectory string, candidate string) string {
	if strings.Contains(candidate, urlSchemeSeparatorConstant) {
		return candidate
	}
	return homeExpander.ResolveAgainst(baseDirectory, candidate)
}
