package aggregator

import (
	"fmt"
	"strings"
)

const (
	dirtyRepositoryTemplateConstant     = "%s has uncommitted changes:\n%s"
	unresolvableRefTemplateConstant     = "could not reset %s to %s: no commit found for %s"
	missingTargetRemoteTemplateConstant = "cannot push %s, no target remote configured"
)

// DirtyRepositoryError blocks a baseline reset of a working tree with local changes.
type DirtyRepositoryError struct {
	RepositoryPath string
	Status         string
}

// Error lists the porcelain status that made the repository dirty.
func (dirtyError DirtyRepositoryError) Error() string {
	return fmt.Sprintf(dirtyRepositoryTemplateConstant, dirtyError.RepositoryPath, strings.TrimSpace(dirtyError.Status))
}

// UnresolvableRefError reports a baseline ref that is neither known to the remote nor a commit id.
type UnresolvableRefError struct {
	Remote string
	Ref    string
}

// Error names the remote and ref.
func (refError UnresolvableRefError) Error() string {
	return fmt.Sprintf(unresolvableRefTemplateConstant, refError.Remote, refError.Ref, refError.Ref)
}

// MissingTargetRemoteError reports a push requested for a target without a remote.
type MissingTargetRemoteError struct {
	Branch string
}

// Error names the branch that cannot be pushed.
func (targetError MissingTargetRemoteError) Error() string {
	return fmt.Sprintf(missingTargetRemoteTemplateConstant, targetError.Branch)
}
