// Package aggregator rebuilds an aggregated branch from an ordered list of refs.
//
// A Descriptor names a working directory, its remotes, the merges that make up
// the target branch, and optional patches and post hooks. Engine brings the
// working directory to that state: it clones or initializes the repository,
// selects the target branch, synchronizes remotes, fetches every merge, resets
// to the baseline (the first merge), pulls the remaining merges, applies patches
// and runs the post hooks. Running Aggregate twice against unchanged remotes
// yields the same branch tip.
package aggregator
