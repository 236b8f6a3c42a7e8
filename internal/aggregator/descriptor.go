package aggregator

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	workingDirectoryRequiredMessageConstant  = "working directory must be provided"
	workingDirectoryRelativeTemplateConstant = "working directory %s must be absolute"
	remotesRequiredMessageConstant           = "at least one remote must be declared"
	mergesRequiredMessageConstant            = "at least one merge must be declared"
	targetBranchRequiredMessageConstant      = "target branch must be provided"
	remoteNameRequiredMessageConstant        = "remote name must be provided"
	remoteURLRequiredTemplateConstant        = "remote %s has no url"
	duplicateRemoteTemplateConstant          = "remote %s is declared more than once"
	mergeRefRequiredTemplateConstant         = "merge from %s has no ref"
	undeclaredMergeRemoteTemplateConstant    = "merge remote %s is not declared"
	undeclaredTargetRemoteTemplateConstant   = "target remote %s is not declared"
	invalidDescriptorTemplateConstant        = "invalid descriptor for %s: %w"
)

// Remote is a named repository URL.
type Remote struct {
	Name string
	URL  string
}

// Merge is one ref to incorporate into the target branch.
type Merge struct {
	Remote       string
	Ref          string
	FetchOptions FetchOptions
}

// Target names the aggregated branch and, optionally, the remote it is pushed to.
type Target struct {
	Remote string
	Branch string
}

// HasRemote reports whether the target can be pushed.
func (target Target) HasRemote() bool {
	return len(target.Remote) > 0
}

// FetchAll selects remotes fetched in full rather than ref by ref.
type FetchAll struct {
	AllRemotes  bool
	RemoteNames []string
}

// Includes reports whether remote must be fetched in full.
func (fetchAll FetchAll) Includes(remote string) bool {
	if fetchAll.AllRemotes {
		return true
	}
	for _, name := range fetchAll.RemoteNames {
		if name == remote {
			return true
		}
	}
	return false
}

// Descriptor describes how one working directory is aggregated.
// Merges[0] is the baseline; the remaining merges are pulled on top of it in order.
type Descriptor struct {
	WorkingDirectory string
	Remotes          []Remote
	Merges           []Merge
	Target           Target
	PostHooks        []string
	Patches          []string
	FetchAll         FetchAll
	Defaults         FetchOptions
	Force            bool
}

// RemoteURL returns the URL declared for name.
func (descriptor Descriptor) RemoteURL(name string) (string, bool) {
	for _, remote := range descriptor.Remotes {
		if remote.Name == name {
			return remote.URL, true
		}
	}
	return "", false
}

// Validate checks the structural invariants the engine relies on.
func (descriptor Descriptor) Validate() error {
	if validationError := descriptor.validate(); validationError != nil {
		return fmt.Errorf(invalidDescriptorTemplateConstant, descriptor.WorkingDirectory, validationError)
	}
	return nil
}

func (descriptor Descriptor) validate() error {
	if len(descriptor.WorkingDirectory) == 0 {
		return errors.New(workingDirectoryRequiredMessageConstant)
	}
	if !filepath.IsAbs(descriptor.WorkingDirectory) {
		return fmt.Errorf(workingDirectoryRelativeTemplateConstant, descriptor.WorkingDirectory)
	}
	if len(descriptor.Remotes) == 0 {
		return errors.New(remotesRequiredMessageConstant)
	}

	declaredRemotes := make(map[string]struct{}, len(descriptor.Remotes))
	for _, remote := range descriptor.Remotes {
		if len(remote.Name) == 0 {
			return errors.New(remoteNameRequiredMessageConstant)
		}
		if len(remote.URL) == 0 {
			return fmt.Errorf(remoteURLRequiredTemplateConstant, remote.Name)
		}
		if _, duplicate := declaredRemotes[remote.Name]; duplicate {
			return fmt.Errorf(duplicateRemoteTemplateConstant, remote.Name)
		}
		declaredRemotes[remote.Name] = struct{}{}
	}

	if len(descriptor.Merges) == 0 {
		return errors.New(mergesRequiredMessageConstant)
	}
	for _, merge := range descriptor.Merges {
		if _, declared := declaredRemotes[merge.Remote]; !declared {
			return fmt.Errorf(undeclaredMergeRemoteTemplateConstant, merge.Remote)
		}
		if len(merge.Ref) == 0 {
			return fmt.Errorf(mergeRefRequiredTemplateConstant, merge.Remote)
		}
	}

	if len(descriptor.Target.Branch) == 0 {
		return errors.New(targetBranchRequiredMessageConstant)
	}
	if descriptor.Target.HasRemote() {
		if _, declared := declaredRemotes[descriptor.Target.Remote]; !declared {
			return fmt.Errorf(undeclaredTargetRemoteTemplateConstant, descriptor.Target.Remote)
		}
	}
	return nil
}
