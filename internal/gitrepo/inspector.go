package gitrepo

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	gitDirectoryNameConstant                  = ".git"
	remoteReferencePrefixTemplateConstant     = "refs/remotes/%s/"
	headResolutionFailureTemplateConstant     = "failed to resolve HEAD of %s: %w"
	referenceIterationFailureTemplateConstant = "failed to list references of %s: %w"
	symbolicHeadReadFailureTemplateConstant   = "failed to read HEAD of %s: %w"
	detachedHeadBranchLabelConstant           = ""
)

// Inspector reads repository metadata directly from the .git directory without spawning git.
// It only reads references, so repositories using extensions such as partial clone are supported.
type Inspector struct{}

// NewInspector constructs an Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// HeadRevision returns the commit id HEAD points to.
func (inspector *Inspector) HeadRevision(repositoryPath string) (string, error) {
	referenceStorage := openReferenceStorage(repositoryPath)
	headReference, resolutionError := storer.ResolveReference(referenceStorage, plumbing.HEAD)
	if resolutionError != nil {
		return "", fmt.Errorf(headResolutionFailureTemplateConstant, repositoryPath, resolutionError)
	}
	return headReference.Hash().String(), nil
}

// CurrentBranch returns the short branch name HEAD refers to, or an empty string for a detached HEAD.
func (inspector *Inspector) CurrentBranch(repositoryPath string) (string, error) {
	referenceStorage := openReferenceStorage(repositoryPath)
	headReference, readError := referenceStorage.Reference(plumbing.HEAD)
	if readError != nil {
		return "", fmt.Errorf(symbolicHeadReadFailureTemplateConstant, repositoryPath, readError)
	}
	if headReference.Type() != plumbing.SymbolicReference {
		return detachedHeadBranchLabelConstant, nil
	}
	return headReference.Target().Short(), nil
}

// RemoteTrackingBranches lists the branches fetched from remote, sorted by name.
func (inspector *Inspector) RemoteTrackingBranches(repositoryPath string, remote string) ([]string, error) {
	referenceStorage := openReferenceStorage(repositoryPath)
	referenceIterator, iterationError := referenceStorage.IterReferences()
	if iterationError != nil {
		return nil, fmt.Errorf(referenceIterationFailureTemplateConstant, repositoryPath, iterationError)
	}
	defer referenceIterator.Close()

	remotePrefix := fmt.Sprintf(remoteReferencePrefixTemplateConstant, remote)
	branches := []string{}
	forEachError := referenceIterator.ForEach(func(reference *plumbing.Reference) error {
		referenceName := reference.Name()
		if !referenceName.IsRemote() {
			return nil
		}
		if !strings.HasPrefix(referenceName.String(), remotePrefix) {
			return nil
		}
		branchName := strings.TrimPrefix(referenceName.String(), remotePrefix)
		if branchName == plumbing.HEAD.String() {
			return nil
		}
		branches = append(branches, branchName)
		return nil
	})
	if forEachError != nil {
		return nil, fmt.Errorf(referenceIterationFailureTemplateConstant, repositoryPath, forEachError)
	}

	sort.Strings(branches)
	return branches, nil
}

func openReferenceStorage(repositoryPath string) *filesystem.Storage {
	gitDirectory := osfs.New(filepath.Join(repositoryPath, gitDirectoryNameConstant))
	return filesystem.NewStorage(gitDirectory, cache.NewObjectLRUDefault())
}
