// Package gitrepo interrogates and manipulates git working directories.
//
// RefResolver classifies refs on remotes through git ls-remote, RepositoryManager
// drives the porcelain commands that change local state (remotes, branches,
// reset and clean), and Inspector reads references straight from the .git
// directory with go-git. ParseRemoteURL splits hosted remote addresses into
// owner and repository for callers that talk to hosting APIs.
package gitrepo
