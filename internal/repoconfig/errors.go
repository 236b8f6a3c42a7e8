package repoconfig

import "fmt"

const (
	configurationErrorTemplateConstant        = "%s: %s"
	configurationCauseTemplateConstant        = "%s: %v"
	missingConfigurationFileTemplateConstant  = "unable to find configuration file: %s"
	unreadableConfigurationTemplateConstant   = "unable to read configuration file %s"
	unparsableConfigurationMessageConstant    = "unable to parse repository configuration"
	unreadableEnvironmentFileTemplateConstant = "unable to read environment file %s"
	invalidRootMessageConstant                = "configuration must map working directories to repository settings"
	invalidRepositoryMessageConstant          = "repository settings must be a mapping"
	remotesUndefinedMessageConstant           = "remotes is not defined"
	remotesEmptyMessageConstant               = "you should at least define one remote"
	remotesNotMappingMessageConstant          = "remotes must map remote names to urls"
	remoteURLMissingTemplateConstant          = "no url defined for remote %s"
	mergesUndefinedMessageConstant            = "merges is not defined"
	mergesEmptyMessageConstant                = "you should at least define one merge"
	mergesNotSequenceMessageConstant          = "merges must be a list"
	mergeFormatMessageConstant                = "merge must be formatted as \"remote_name ref\""
	mergeKeysMissingMessageConstant           = "merge lacks mandatory `remote` or `ref` keys"
	mergeRemoteUndefinedTemplateConstant      = "merge remote %s not defined in remotes"
	targetFormatMessageConstant               = "target must be formatted as \"[remote_name] branch_name\""
	targetRemoteUndefinedTemplateConstant     = "target remote %s not defined in remotes"
	stringListMessageTemplateConstant         = "%s must be a string or a list of strings"
	fetchAllFormatMessageConstant             = "fetch_all must be a boolean, a remote name, or a list of remote names"
	defaultsFormatMessageConstant             = "defaults must map fetch options to values"
	duplicateDirectoryMessageConstant         = "working directory is declared more than once"
)

// ConfigurationError reports an invalid repository configuration.
// Directory is empty for problems that are not tied to one repository.
type ConfigurationError struct {
	Directory string
	Message   string
	Cause     error
}

// Error prefixes the message with the repository directory when known.
func (configurationError ConfigurationError) Error() string {
	message := configurationError.Message
	if configurationError.Cause != nil {
		message = fmt.Sprintf(configurationCauseTemplateConstant, message, configurationError.Cause)
	}
	if len(configurationError.Directory) == 0 {
		return message
	}
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Directory, message)
}

// Unwrap exposes the underlying parse or read failure.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}
